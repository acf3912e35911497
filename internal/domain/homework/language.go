package homework

import (
	"strings"

	"github.com/samber/lo"
)

// Language is a supported target language.
type Language string

const (
	LanguageSpanish    Language = "spanish"
	LanguageChinese    Language = "chinese"
	LanguageArabic     Language = "arabic"
	LanguageVietnamese Language = "vietnamese"
	LanguageFrench     Language = "french"
	LanguageHindi      Language = "hindi"
	LanguagePortuguese Language = "portuguese"
)

// LanguageInfo describes a language for display and speech.
type LanguageInfo struct {
	Code       Language `json:"code"`
	Label      string   `json:"label"`
	Native     string   `json:"native"`
	SpeechCode string   `json:"speech_code"`
}

var languages = []LanguageInfo{
	{LanguageSpanish, "Spanish", "Español", "es"},
	{LanguageChinese, "Chinese", "中文", "zh"},
	{LanguageArabic, "Arabic", "العربية", "ar"},
	{LanguageVietnamese, "Vietnamese", "Tiếng Việt", "vi"},
	{LanguageFrench, "French", "Français", "fr"},
	{LanguageHindi, "Hindi", "हिन्दी", "hi"},
	{LanguagePortuguese, "Portuguese", "Português", "pt"},
}

var languageIndex = lo.KeyBy(languages, func(l LanguageInfo) Language { return l.Code })

// Languages returns the supported languages in display order.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// ParseLanguage accepts the code case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

func (l Language) Valid() bool {
	_, ok := languageIndex[l]
	return ok
}

// SpeechCode is the ISO 639-1 code handed to the speech synthesizer.
func (l Language) SpeechCode() string { return languageIndex[l].SpeechCode }

// Label is the English display name, used inside prompts.
func (l Language) Label() string {
	if info, ok := languageIndex[l]; ok {
		return info.Label
	}
	return string(l)
}

// GradeLevels lists the accepted grade-level hints.
var GradeLevels = []string{
	"1st Grade",
	"2nd Grade",
	"3rd Grade",
	"4th Grade",
	"5th Grade",
	"6th Grade",
	"7th Grade",
	"8th Grade",
	"9th Grade",
	"10th Grade",
	"11th Grade",
	"12th Grade",
	"College",
}

func ValidGradeLevel(g string) bool { return lo.Contains(GradeLevels, g) }
