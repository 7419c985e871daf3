package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisitorID(t *testing.T) {
	raw := uuid.NewString()
	id, err := ParseVisitorID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.String())
	assert.False(t, id.IsNil())
}

func TestParseIDsRejectInvalid(t *testing.T) {
	for _, input := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		_, err := ParseVisitorID(input)
		assert.Error(t, err, "visitor id %q", input)

		_, err = ParseEventID(input)
		assert.Error(t, err, "event id %q", input)

		_, err = ParseRegistrationID(input)
		assert.Error(t, err, "registration id %q", input)
	}
}

func TestNewIDsAreDistinct(t *testing.T) {
	assert.NotEqual(t, NewVisitorID(), NewVisitorID())
	assert.False(t, NewVisitorID().IsNil())
	assert.False(t, NewEventID().IsNil())
	assert.False(t, NewRegistrationID().IsNil())
	assert.False(t, NewScanID().IsNil())
}
