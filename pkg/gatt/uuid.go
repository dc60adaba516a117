package gatt

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// UUIDString renders UUID bytes as they arrive on the wire (little-endian)
// into their display form: 16 byte UUIDs become the canonical dashed
// lowercase notation, shorter ones plain lowercase hex ("2a00").
func UUIDString(wire []byte) string {
	display := make([]byte, len(wire))
	for i, b := range wire {
		display[len(wire)-1-i] = b
	}
	if u, err := uuid.FromBytes(display); err == nil {
		return u.String()
	}
	return hex.EncodeToString(display)
}

// NormalizeUUID brings caller-supplied UUID text to the form UUIDString
// produces, so directory lookups accept 0x-prefixed, uppercase, dashed and
// undashed spellings alike.
func NormalizeUUID(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return s
}
