package workflow

import (
	"encoding/base64"
	"errors"
	"strings"
)

// extByMime covers the formats phone cameras actually produce.
var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DecodeDataURL parses an inline "data:image/...;base64,..." payload
// into raw bytes plus a file extension. Bare base64 without the data:
// prefix is accepted too and assumed to be JPEG.
func DecodeDataURL(s string) ([]byte, string, error) {
	ext := ".jpg"
	payload := s

	if strings.HasPrefix(s, "data:") {
		meta, rest, found := strings.Cut(s[len("data:"):], ",")
		if !found {
			return nil, "", errors.New("malformed data URL")
		}
		mime, _, _ := strings.Cut(meta, ";")
		if !strings.Contains(meta, "base64") {
			return nil, "", errors.New("data URL must be base64 encoded")
		}
		known, ok := extByMime[mime]
		if !ok {
			return nil, "", errors.New("unsupported image type: " + mime)
		}
		ext = known
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.New("invalid base64 image payload")
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty image payload")
	}
	return data, ext, nil
}
