package speech

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hola", Truncate("hola"))

	long := strings.Repeat("a", MaxTextLength+10)
	assert.Len(t, Truncate(long), MaxTextLength)

	// multi-byte characters are counted as one
	wide := strings.Repeat("é", MaxTextLength+1)
	out := Truncate(wide)
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))
}
