package frame

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	dataURIScheme = "data:"
	base64Marker  = ";base64,"
)

// DecodePayload turns an encoded frame into raw image bytes.
//
// The payload is either bare base64 or a data URI such as
// "data:image/jpeg;base64,/9j/4AAQ...". Padded and unpadded base64 are both
// accepted.
func DecodePayload(payload string) ([]byte, error) {
	encoded := payload
	if strings.HasPrefix(encoded, dataURIScheme) {
		i := strings.Index(encoded, base64Marker)
		if i < 0 {
			return nil, fmt.Errorf("%w: data URI is not base64 encoded", ErrDecode)
		}
		encoded = encoded[i+len(base64Marker):]
	}
	encoded = strings.TrimSpace(encoded)

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil && !strings.HasSuffix(encoded, "=") {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return data, nil
}

// EncodeDataURI is the inverse of DecodePayload for a given media type.
func EncodeDataURI(mediaType string, data []byte) string {
	return dataURIScheme + mediaType + base64Marker + base64.StdEncoding.EncodeToString(data)
}
