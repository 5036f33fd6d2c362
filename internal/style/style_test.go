package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Balanced, s)

	s, err = Parse("  Technical ")
	require.NoError(t, err)
	assert.Equal(t, Technical, s)

	_, err = Parse("poetic")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestEveryStyleHasDirective(t *testing.T) {
	for _, s := range All() {
		assert.NotEmpty(t, s.Directive(), "style %s", s)
	}
}
