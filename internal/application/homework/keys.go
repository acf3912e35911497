package homework

import (
	"fmt"
	"strings"
)

const audioContentType = "audio/mpeg"

// AudioKey is the object key of an explanation recording.
func AudioKey(ownerID string, ms int64) string {
	return fmt.Sprintf("homework-audio/%s/%d.mp3", ownerID, ms)
}

// ImageKey is the object key of an uploaded homework photo.
func ImageKey(ownerID string, ms int64, mimeType string) string {
	return fmt.Sprintf("homework-images/%s/%d.%s", ownerID, ms, imageExt(mimeType))
}

func imageExt(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/heic":
		return "heic"
	default:
		return "jpg"
	}
}
