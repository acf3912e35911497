package speech

import (
	"context"
	"errors"
)

// MaxTextLength is the number of characters sent to the synthesizer; longer text is cut.
const MaxTextLength = 4000

// ErrAudio wraps every text-to-speech failure.
var ErrAudio = errors.New("speech synthesis failed")

// Synthesizer converts text to audio bytes (audio/mpeg).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

// Truncate cuts text to MaxTextLength characters (runes, not bytes).
func Truncate(text string) string {
	r := []rune(text)
	if len(r) <= MaxTextLength {
		return text
	}
	return string(r[:MaxTextLength])
}
