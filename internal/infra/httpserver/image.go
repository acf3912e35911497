package httpserver

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// decodeImage accepts raw base64 or a data:<mime>;base64,<payload> URL.
// The returned mime is the hint from the data URL, if any.
func decodeImage(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := s[len("data:"):idx]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("data URL must be base64 encoded")
		}
		hint = strings.TrimSuffix(meta, ";base64")
		s = s[idx+1:]
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, hint, nil
		}
	}
	return nil, "", fmt.Errorf("image is not valid base64")
}
