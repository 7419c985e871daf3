package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "could not store challenge")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "event is full")
	outer := fmt.Errorf("register: %w", inner)

	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeConflict))
}

func TestCodeOfAndMessageOf(t *testing.T) {
	err := New(CodeRateLimited, "verification already in progress")
	assert.Equal(t, CodeRateLimited, CodeOf(err))
	assert.Equal(t, "verification already in progress", MessageOf(err))

	plain := errors.New("boom")
	assert.Equal(t, CodeInternal, CodeOf(plain))
	assert.Empty(t, MessageOf(plain))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:       http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvariantViolation: http.StatusConflict,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeUnavailable:        http.StatusServiceUnavailable,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("mystery")))
}
