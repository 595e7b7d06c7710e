package illustrator

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Download is a decoded image ready to be served as an attachment
type Download struct {
	Data     []byte
	MIMEType string
	FileName string
}

// NewDownload decodes a data:<mime>;base64,<data> payload.
// The file is named vipaii-art-<unix-ms><ext> after the time at.
func NewDownload(payload string, at time.Time) (*Download, error) {
	mimeType, data, err := DecodeDataURI(payload)
	if err != nil {
		return nil, err
	}

	ext := ".png"
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}

	return &Download{
		Data:     data,
		MIMEType: mimeType,
		FileName: fmt.Sprintf("vipaii-art-%d%s", at.UnixMilli(), ext),
	}, nil
}

// DecodeDataURI splits a base64 data URI into its MIME type and bytes
func DecodeDataURI(payload string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", nil, fmt.Errorf("payload is not a data URI")
	}

	header, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}

	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
	}

	return mimeType, data, nil
}
