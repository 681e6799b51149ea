package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestClassify_KnownTokens(t *testing.T) {
	c := NewClassifier(zap.NewNop())
	cases := map[string]Category{
		"forest":      Forest,
		"Forest":      Forest,
		"CITY":        City,
		"road":        Road,
		"underwater":  Water,
		"mountains":   Mountain,
		"inside":      Indoor,
		"underground": Indoor,
		"beach":       Desert,
		"hills":       Field,
	}
	for token, want := range cases {
		assert.Equal(t, want, c.Classify(token), "token %q", token)
	}
}

func TestClassify_UnknownAndEmpty(t *testing.T) {
	c := NewClassifier(zap.NewNop())
	assert.Equal(t, Unknown, c.Classify("lava_fields"))
	assert.Equal(t, Unknown, c.Classify(""))
}

func TestClassify_LogsUnknownTokenOncePerSession(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewClassifier(zap.New(core))

	for i := 0; i < 5; i++ {
		c.Classify("lava_fields")
	}
	c.Classify("void")

	assert.Equal(t, 2, logs.Len(), "one entry per distinct unknown token")
}
