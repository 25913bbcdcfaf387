package trace

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"timeout", errors.New("request timeout after 30s"), ErrorTimeout},
		{"auth", errors.New("401 Unauthorized"), ErrorAuthFailed},
		{"auth alt", errors.New("auth failed: bad token"), ErrorAuthFailed},
		{"validation", errors.New("validation failed: missing field"), ErrorValidation},
		{"network", errors.New("ECONNREFUSED"), ErrorNetwork},
		{"unknown", errors.New("something exploded"), ErrorUnknown},
		{"nil", nil, ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyNeverLeaksMessage(t *testing.T) {
	err := errors.New("network failure contacting https://secret.internal/token=abc123")
	ev := NewErrorEvent("s1", "llm", 0, 1, time.Now(), 0, err)
	assert.NotContains(t, string(ev.ErrorType), "secret.internal")
	assert.NotContains(t, string(ev.ErrorType), "abc123")
}
