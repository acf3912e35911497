package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/clarify/internal/domain/homework"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
)

func TestValidateLanguage(t *testing.T) {
	l, err := ValidateLanguage("Vietnamese")
	require.NoError(t, err)
	assert.Equal(t, homework.LanguageVietnamese, l)

	_, err = ValidateLanguage("english")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spanish")
}

func TestValidateGradeLevel(t *testing.T) {
	assert.NoError(t, ValidateGradeLevel(""))
	assert.NoError(t, ValidateGradeLevel("College"))
	assert.Error(t, ValidateGradeLevel("Kindergarten"))
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		max      int64
		want     string
		wantErr  bool
	}{
		{"png", pngHeader, "", 0, "image/png", false},
		{"jpeg declared wrong", jpegHeader, "image/png", 0, "image/jpeg", false},
		{"heic declared", []byte("\x00\x00\x00\x18ftypheic"), "image/heic", 0, "image/heic", false},
		{"too large", pngHeader, "", 4, "", true},
		{"empty", nil, "image/png", 0, "", true},
		{"pdf", []byte("%PDF-1.7"), "application/pdf", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImage(tt.data, tt.declared, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	q, err := ValidateQuestion("  why\x00 is x = 4?\x07 ")
	require.NoError(t, err)
	assert.Equal(t, "why is x = 4?", q)

	_, err = ValidateQuestion(" \x01 ")
	assert.Error(t, err)

	_, err = ValidateQuestion(strings.Repeat("é", MaxQuestionLength+1))
	assert.Error(t, err)
}

func TestValidateOwnerID(t *testing.T) {
	assert.NoError(t, ValidateOwnerID("student_1-a"))
	assert.Error(t, ValidateOwnerID(""))
	assert.Error(t, ValidateOwnerID("a b"))
	assert.Error(t, ValidateOwnerID(strings.Repeat("a", 65)))
}
