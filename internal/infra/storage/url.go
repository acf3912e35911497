package storage

import (
	"net/url"
	"strings"
)

// publicURL joins base and an object key, escaping each key segment.
func publicURL(base, key string) string {
	segs := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}
