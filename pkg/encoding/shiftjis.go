// Package encoding decodes bone and morph names as they appear in motion files.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ShiftJISToUTF8 converts Shift-JIS encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func ShiftJISToUTF8(data []byte) string {
	result, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// TrimNullBytes cuts a fixed-width field at its first null byte.
func TrimNullBytes(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// DecodeName turns a fixed-width, null-padded Shift-JIS name field into
// the UTF-8 name used for bone and morph lookup.
func DecodeName(field []byte) string {
	return NormalizeName(ShiftJISToUTF8(TrimNullBytes(field)))
}

// NormalizeName trims surrounding whitespace so names typed in documents
// and names decoded from files compare equal.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
