package genai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ParseDataURL decodes a browser-produced data URL (the FileReader upload
// format) into a SubjectImage.
func ParseDataURL(raw string) (SubjectImage, error) {
	raw = strings.TrimSpace(raw)
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return SubjectImage{}, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return SubjectImage{}, fmt.Errorf("malformed data url")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return SubjectImage{}, fmt.Errorf("decode data url: %w", err)
	}
	if len(data) == 0 {
		return SubjectImage{}, fmt.Errorf("empty image payload")
	}
	if mime == "" {
		mime = "image/png"
	}
	return SubjectImage{Data: data, MIME: mime}, nil
}
