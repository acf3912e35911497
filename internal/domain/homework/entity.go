package homework

import (
	"fmt"
	"strings"
)

// RecordID is assigned by the persistence layer.
type RecordID string

// Image is a captured homework photo.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is one analysis submission. Exactly one of Image or Text is set.
type Request struct {
	Image          *Image
	Text           string
	TargetLanguage Language
	GradeLevel     string
	HintsMode      bool
}

// Validate checks the request before it is sent anywhere.
func (r Request) Validate() error {
	hasImage := r.Image != nil
	hasText := strings.TrimSpace(r.Text) != ""
	switch {
	case hasImage && hasText:
		return fmt.Errorf("%w: provide either an image or text, not both", ErrInvalidRequest)
	case !hasImage && !hasText:
		return fmt.Errorf("%w: an image or text is required", ErrInvalidRequest)
	case hasImage && len(r.Image.Data) == 0:
		return fmt.Errorf("%w: image is empty", ErrInvalidRequest)
	}
	if !r.TargetLanguage.Valid() {
		return fmt.Errorf("%w: unsupported target language %q", ErrInvalidRequest, r.TargetLanguage)
	}
	if r.GradeLevel != "" && !ValidGradeLevel(r.GradeLevel) {
		return fmt.Errorf("%w: unknown grade level %q", ErrInvalidRequest, r.GradeLevel)
	}
	return nil
}

// Result is produced atomically by one inference call.
type Result struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	Explanation    string `json:"explanation"`
	Subject        string `json:"subject"`
	SourceLanguage string `json:"source_language"`
}

// Record is the persisted projection of a Result.
type Record struct {
	ID             RecordID `json:"id,omitempty"`
	OwnerID        string   `json:"owner_id"`
	ImageURL       string   `json:"image_url"`
	AudioURL       string   `json:"audio_url,omitempty"`
	OriginalText   string   `json:"original_text"`
	TranslatedText string   `json:"translated_text"`
	Explanation    string   `json:"explanation"`
	Subject        string   `json:"subject"`
	SourceLanguage string   `json:"source_language"`
	TargetLanguage Language `json:"target_language"`
	Timestamp      int64    `json:"timestamp"` // unix milliseconds
}

// NewRecord builds the in-memory record for a fresh result; it has no ID yet.
func NewRecord(owner string, lang Language, res Result, timestampMS int64) *Record {
	return &Record{
		OwnerID:        owner,
		OriginalText:   res.OriginalText,
		TranslatedText: res.TranslatedText,
		Explanation:    res.Explanation,
		Subject:        res.Subject,
		SourceLanguage: res.SourceLanguage,
		TargetLanguage: lang,
		Timestamp:      timestampMS,
	}
}

// Result projects the record back to the analysis fields.
func (r *Record) Result() Result {
	return Result{
		OriginalText:   r.OriginalText,
		TranslatedText: r.TranslatedText,
		Explanation:    r.Explanation,
		Subject:        r.Subject,
		SourceLanguage: r.SourceLanguage,
	}
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	AudioURL *string
	ImageURL *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.AudioURL == nil && p.ImageURL == nil }
