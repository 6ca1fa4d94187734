package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
)

// ErrBadDataURL reports a string that is not a data URL.
var ErrBadDataURL = errors.New("render: malformed data URL")

// EncodeDataURL returns data as a base64 data URL of the given media type.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a data URL into its media type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if mime == "" {
		mime = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		return mime, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return mime, []byte(text), nil
}

// DecodeDataURLImage decodes the picture carried by a data URL.
func DecodeDataURLImage(s string) (image.Image, error) {
	mime, data, err := DecodeDataURL(s)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: media type %s", ErrBadDataURL, mime)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
