package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotDataURL is returned when a value is not a base64 data URL.
var ErrNotDataURL = errors.New("not a base64 data URL")

// DefaultMIMEType is assumed when a data URL omits its media type.
const DefaultMIMEType = "image/jpeg"

// Image is a decoded label photograph.
type Image struct {
	MIMEType string
	Data     []byte
}

// IsDataURL reports whether s carries inline image data rather than a link.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL decodes data:<mime>;base64,<payload>.
func ParseDataURL(s string) (Image, error) {
	if !IsDataURL(s) {
		return Image{}, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrNotDataURL)
	}

	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return Image{}, fmt.Errorf("%w: payload is not base64", ErrNotDataURL)
	}
	mime := strings.TrimSpace(params[0])
	if mime == "" || mime == "base64" {
		mime = DefaultMIMEType
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrNotDataURL)
	}
	return Image{MIMEType: strings.ToLower(mime), Data: data}, nil
}

// DataURL renders the image back into inline form.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Extension maps a MIME type to the file extension used for stored objects.
// Unrecognised types are stored as jpg, which is what phone cameras produce.
func Extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
