package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/store"
)

func TestRecordStoreOp_LabelsErrorsByKind(t *testing.T) {
	m := metrics.New()
	m.RecordStoreOp("load", 10*time.Millisecond, nil)
	m.RecordStoreOp("load", 5*time.Millisecond, &store.Error{Kind: store.KindIRNotFound})
	m.RecordStoreOp("load", 5*time.Millisecond, errors.New("plain error"))
	require.NotNil(t, m.Handler())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `tens_store_errors_total{kind="IR_NOT_FOUND",operation="load"} 1`)
	assert.Contains(t, body, `tens_store_errors_total{kind="unknown",operation="load"} 1`)
}

func TestUpdateStoreStats(t *testing.T) {
	m := metrics.New()
	m.UpdateStoreStats(3, 7)
	assert.NotNil(t, m)
}
