package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/bryanwahyu/clarify/internal/domain/homework"
)

// Input validation and sanitization utilities

const (
	MaxQuestionLength = 2000
	MaxTextLength     = 20000
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic"}

var ownerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateLanguage parses a target language name.
func ValidateLanguage(s string) (homework.Language, error) {
	l, ok := homework.ParseLanguage(s)
	if !ok {
		codes := lo.Map(homework.Languages(), func(l homework.LanguageInfo, _ int) string { return string(l.Code) })
		return "", fmt.Errorf("invalid target_language: %q (allowed: %s)", s, strings.Join(codes, ", "))
	}
	return l, nil
}

// ValidateGradeLevel accepts an empty grade (no grade instruction in the prompt).
func ValidateGradeLevel(g string) error {
	if g == "" || homework.ValidGradeLevel(g) {
		return nil
	}
	return fmt.Errorf("invalid grade_level: %q", g)
}

// ValidateImage checks size and sniffs the real content type.
// declared may be empty; it must agree with the sniffed type when present.
func ValidateImage(data []byte, declared string, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("image is %d bytes, limit is %d", len(data), maxBytes)
	}

	mime := sniffImage(data)
	if mime == "" {
		declared = strings.ToLower(strings.TrimSpace(declared))
		// http.DetectContentType does not know HEIC
		if declared == "image/heic" || declared == "image/heif" {
			return "image/heic", nil
		}
		return "", fmt.Errorf("unsupported image type (allowed: %s)", strings.Join(allowedImageTypes, ", "))
	}
	return mime, nil
}

func sniffImage(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if lo.Contains(allowedImageTypes, mime) {
		return mime
	}
	return ""
}

// ValidateQuestion cleans and bounds a follow-up question.
func ValidateQuestion(q string) (string, error) {
	q = SanitizeString(q)
	if q == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return "", fmt.Errorf("question is longer than %d characters", MaxQuestionLength)
	}
	return q, nil
}

// ValidateText bounds typed homework text. Empty is allowed when an image is sent.
func ValidateText(s string) (string, error) {
	s = SanitizeString(s)
	if utf8.RuneCountInString(s) > MaxTextLength {
		return "", fmt.Errorf("text is longer than %d characters", MaxTextLength)
	}
	return s, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 && r != 0x7F || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateOwnerID validates owner id format
func ValidateOwnerID(owner string) error {
	if owner == "" {
		return fmt.Errorf("owner ID cannot be empty")
	}
	if !ownerIDPattern.MatchString(owner) {
		return fmt.Errorf("invalid owner ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}
