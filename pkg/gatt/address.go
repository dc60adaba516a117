package gatt

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a six byte Bluetooth device address kept in wire order
// (least-significant byte first, as BGAPI transmits it). Its textual form is
// the usual most-significant-byte-first colon notation, so storage order is
// the reverse of display order.
type Address [6]byte

// ParseAddress parses the canonical colon-hex form: exactly six groups of
// two hexadecimal digits, most-significant byte first. Failures are
// *FormatError values.
func ParseAddress(s string) (Address, error) {
	groups := strings.Split(s, ":")
	if len(groups) != len(Address{}) {
		return Address{}, &FormatError{
			Text:   s,
			Reason: fmt.Sprintf("expected 6 colon-separated groups, got %d", len(groups)),
		}
	}

	var addr Address
	for i, group := range groups {
		if len(group) != 2 {
			return Address{}, &FormatError{
				Text:   s,
				Reason: fmt.Sprintf("group %q is not two hex digits", group),
			}
		}
		b, err := strconv.ParseUint(group, 16, 8)
		if err != nil {
			return Address{}, &FormatError{
				Text:   s,
				Reason: fmt.Sprintf("group %q is not two hex digits", group),
			}
		}
		// Text is most-significant first; storage is the reverse.
		addr[len(addr)-1-i] = byte(b)
	}
	return addr, nil
}

// String renders the address most-significant byte first with lowercase hex
// digits. ParseAddress(a.String()) == a for every address.
func (a Address) String() string {
	var sb strings.Builder
	for i := len(a) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02x", a[i])
		if i != 0 {
			sb.WriteByte(':')
		}
	}
	return sb.String()
}
