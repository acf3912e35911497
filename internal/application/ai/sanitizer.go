package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/clarify/internal/domain/ai"
	"github.com/bryanwahyu/clarify/internal/domain/homework"
)

// Step is one pure repair pass over raw model output.
type Step struct {
	Name string
	Run  func(string) (string, error)
}

func pure(f func(string) string) func(string) (string, error) {
	return func(s string) (string, error) { return f(s), nil }
}

// Steps run in order. Each is idempotent and so is the whole pipeline.
var Steps = []Step{
	{"trim", pure(TrimSpace)},
	{"strip-fence", pure(StripCodeFence)},
	{"extract-object", ExtractObject},
	{"strip-control", pure(StripControlChars)},
	{"trailing-commas", pure(RemoveTrailingCommas)},
}

// Sanitize turns raw model output into text that should parse as one JSON object.
func Sanitize(raw string) (string, error) {
	s := raw
	for _, st := range Steps {
		out, err := st.Run(s)
		if err != nil {
			var mre *ai.MalformedResponseError
			if errors.As(err, &mre) {
				mre.Raw = raw
			}
			return "", err
		}
		s = out
	}
	return s, nil
}

func TrimSpace(s string) string { return strings.TrimSpace(s) }

// StripCodeFence removes an opening ``` or ```json line and a closing ``` line.
func StripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "```"), "json")
	}
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject keeps the greedy span from the first '{' to the last '}'.
func ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", &ai.MalformedResponseError{Raw: s, Reason: "no JSON object found"}
	}
	return s[start : end+1], nil
}

func isControl(r rune) bool {
	return (r >= 0x00 && r <= 0x1F) || (r >= 0x7F && r <= 0x9F)
}

func escapeLetter(r rune) (byte, bool) {
	switch r {
	case '\n':
		return 'n', true
	case '\r':
		return 'r', true
	case '\t':
		return 't', true
	}
	return 0, false
}

// StripControlChars drops C0/C1 control characters except \n, \r and \t.
// Those three stay literal between tokens and are written as JSON escapes
// inside string literals, where a raw one would not parse.
func StripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
			i++
			escaped = false
			continue
		}
		i += size

		if isControl(r) {
			letter, keep := escapeLetter(r)
			switch {
			case !keep:
			case !inString:
				b.WriteRune(r)
			case escaped:
				// backslash already written
				b.WriteByte(letter)
				escaped = false
			default:
				b.WriteByte('\\')
				b.WriteByte(letter)
			}
			continue
		}

		b.WriteRune(r)
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		}
	}
	return b.String()
}

// RemoveTrailingCommas drops commas (outside strings) that are followed,
// ignoring whitespace and further commas, by '}' or ']'.
func RemoveTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' && closesAfter(s[i+1:]) {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func closesAfter(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n', ',':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

var resultFields = []string{"originalText", "translatedText", "explanation", "subject", "sourceLanguage"}

// ParseResult decodes sanitized text into a Result. Every field must be present and a string.
func ParseResult(jsonText string) (homework.Result, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(jsonText), &m); err != nil {
		return homework.Result{}, &ai.MalformedResponseError{Raw: jsonText, Reason: "invalid JSON", Err: err}
	}

	vals := make(map[string]string, len(resultFields))
	for _, f := range resultFields {
		v, ok := m[f]
		if !ok {
			return homework.Result{}, &ai.MalformedResponseError{Raw: jsonText, Reason: "missing field " + f}
		}
		str, ok := v.(string)
		if !ok {
			return homework.Result{}, &ai.MalformedResponseError{Raw: jsonText, Reason: "field " + f + " is not a string"}
		}
		vals[f] = str
	}

	return homework.Result{
		OriginalText:   vals["originalText"],
		TranslatedText: vals["translatedText"],
		Explanation:    vals["explanation"],
		Subject:        vals["subject"],
		SourceLanguage: vals["sourceLanguage"],
	}, nil
}
