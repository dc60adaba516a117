package gatt

import "github.com/srg/bgatt/internal/bgapi"

// Transport is the BGAPI link the client drives. Both calls block; reads
// return messages strictly in the order the dongle emitted them. Framing,
// checksums and timeouts live below this interface, and its errors propagate
// through the client unmodified.
//
// internal/link provides the serial implementation; tests substitute a
// scripted double.
type Transport interface {
	WriteCommand(cmd bgapi.Command) error
	ReadMessage() (bgapi.Message, error)
}
