package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailNormalizes(t *testing.T) {
	email, err := ParseEmail("  Visitor@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "visitor@example.com", email.String())
	assert.False(t, email.IsNil())
}

func TestParseEmailRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@@example.com",
		"a@b@c.com",
		"user@nodot",
	} {
		_, err := ParseEmail(input)
		assert.Error(t, err, "input %q", input)
	}
}
