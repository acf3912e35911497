package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(schema)
	assert.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS homework")
	assert.Contains(t, stmts[2], "conversation_messages")
}

func TestPatchColumns(t *testing.T) {
	cols, args := patchColumns(domain.Patch{})
	assert.Empty(t, cols)
	assert.Empty(t, args)

	audio, img := "a.mp3", "b.jpg"
	cols, args = patchColumns(domain.Patch{AudioURL: &audio, ImageURL: &img})
	assert.Equal(t, []string{"audio_url=?", "image_url=?"}, cols)
	assert.Equal(t, []any{"a.mp3", "b.jpg"}, args)
}
