package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coredatalabs/tens/internal/tokenizer"
)

func TestResolveEncoding(t *testing.T) {
	cases := map[string]tokenizer.Encoding{
		"gpt-4o":              tokenizer.EncodingO200kBase,
		"gpt-4o-mini":         tokenizer.EncodingO200kBase,
		"gpt-4-omni-preview":  tokenizer.EncodingO200kBase,
		"gpt-4":                tokenizer.EncodingCl100kBase,
		"gpt-3.5-turbo":        tokenizer.EncodingCl100kBase,
		"text-davinci-turbo":   tokenizer.EncodingCl100kBase,
		"gemini-1.5-pro":       tokenizer.EncodingO200kBase,
		"p50k_base":            tokenizer.EncodingP50kBase,
		"r50k_base":            tokenizer.EncodingR50kBase,
		"some-unknown-model":   tokenizer.EncodingO200kBase,
	}
	for model, want := range cases {
		assert.Equal(t, want, tokenizer.ResolveEncoding(model), "model %q", model)
	}
}
