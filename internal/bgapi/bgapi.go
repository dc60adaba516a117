// Package bgapi defines the typed BGAPI packets exchanged with a BLED112
// USB dongle and their binary wire codec.
//
// Every packet starts with a four byte header:
//
//	byte 0: bit 7 is the message type (0 command/response, 1 event),
//	        bits 2..0 are the high bits of the payload length
//	byte 1: low byte of the payload length
//	byte 2: class identifier
//	byte 3: message identifier
//
// Multi-byte payload fields are little-endian. Variable-length fields are
// prefixed with a one byte length; decoders keep the declared length and the
// raw bytes separate so callers can detect disagreement between them.
package bgapi

import (
	"encoding/binary"
	"fmt"
)

// Packet classes used by this driver.
const (
	ClassConnection uint8 = 3
	ClassAttclient  uint8 = 4
	ClassGAP        uint8 = 6
)

// HeaderLen is the fixed BGAPI header size in bytes.
const HeaderLen = 4

// MaxPayloadLen is the largest payload the 11-bit length field can declare.
const MaxPayloadLen = 0x7FF

const typeEventBit = 0x80

// Header is the decoded form of the four byte BGAPI packet header.
type Header struct {
	Event     bool
	Length    int
	ClassID   uint8
	MessageID uint8
}

// ParseHeader decodes a packet header from its wire form.
func ParseHeader(b [HeaderLen]byte) Header {
	return Header{
		Event:     b[0]&typeEventBit != 0,
		Length:    int(b[0]&0x07)<<8 | int(b[1]),
		ClassID:   b[2],
		MessageID: b[3],
	}
}

// Message is any BGAPI packet addressed by class and message identifier.
type Message interface {
	ClassID() uint8
	MessageID() uint8
}

// Command is a host-to-dongle message that knows its own payload encoding.
type Command interface {
	Message
	appendPayload(b []byte) []byte
}

// Marshal encodes a command into a complete wire frame, header included.
func Marshal(cmd Command) []byte {
	payload := cmd.appendPayload(nil)
	frame := make([]byte, HeaderLen, HeaderLen+len(payload))
	frame[0] = byte(len(payload) >> 8 & 0x07)
	frame[1] = byte(len(payload))
	frame[2] = cmd.ClassID()
	frame[3] = cmd.MessageID()
	return append(frame, payload...)
}

// UnknownMessageError reports a packet this codec has no decoder for. The
// transport decides whether to reject or skip such traffic.
type UnknownMessageError struct {
	Event     bool
	ClassID   uint8
	MessageID uint8
}

func (e *UnknownMessageError) Error() string {
	kind := "response"
	if e.Event {
		kind = "event"
	}
	return fmt.Sprintf("unknown bgapi %s (class %d, message %d)", kind, e.ClassID, e.MessageID)
}

// Unmarshal decodes a dongle-to-host packet. The payload must be exactly as
// long as the header declares; selecting the decoder is driven by the header
// type bit, class and message identifiers.
func Unmarshal(h Header, payload []byte) (Message, error) {
	if len(payload) != h.Length {
		return nil, fmt.Errorf("bgapi: header declares %d payload bytes, got %d", h.Length, len(payload))
	}

	var (
		msg Message
		err error
	)
	switch {
	case h.Event:
		msg, err = unmarshalEvent(h, payload)
	default:
		msg, err = unmarshalResponse(h, payload)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func unmarshalResponse(h Header, p []byte) (Message, error) {
	switch h.ClassID {
	case ClassConnection:
		switch h.MessageID {
		case msgConnectionDisconnect:
			return decodeConnectionDisconnectResponse(p)
		case msgConnectionGetStatus:
			return decodeConnectionGetStatusResponse(p)
		}
	case ClassAttclient:
		switch h.MessageID {
		case msgAttclientFindInformation:
			return decodeFindInformationResponse(p)
		case msgAttclientReadByHandle:
			return decodeReadByHandleResponse(p)
		case msgAttclientAttributeWrite:
			return decodeAttributeWriteResponse(p)
		}
	case ClassGAP:
		switch h.MessageID {
		case msgGapDiscover:
			return decodeGapDiscoverResponse(p)
		case msgGapConnectDirect:
			return decodeGapConnectDirectResponse(p)
		case msgGapEndProcedure:
			return decodeGapEndProcedureResponse(p)
		}
	}
	return nil, &UnknownMessageError{ClassID: h.ClassID, MessageID: h.MessageID}
}

func unmarshalEvent(h Header, p []byte) (Message, error) {
	switch h.ClassID {
	case ClassConnection:
		switch h.MessageID {
		case evtConnectionStatus:
			return decodeConnectionStatusEvent(p)
		case evtConnectionDisconnected:
			return decodeDisconnectedEvent(p)
		}
	case ClassAttclient:
		switch h.MessageID {
		case evtAttclientProcedureCompleted:
			return decodeProcedureCompletedEvent(p)
		case evtAttclientFindInformationFound:
			return decodeFindInformationFoundEvent(p)
		case evtAttclientAttributeValue:
			return decodeAttributeValueEvent(p)
		}
	case ClassGAP:
		switch h.MessageID {
		case evtGapScanResponse:
			return decodeScanResponseEvent(p)
		}
	}
	return nil, &UnknownMessageError{Event: true, ClassID: h.ClassID, MessageID: h.MessageID}
}

// truncated builds the decode error for payloads shorter than a fixed part.
func truncated(what string, want, got int) error {
	return fmt.Errorf("bgapi: %s payload truncated: need %d bytes, got %d", what, want, got)
}

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func u16(p []byte) uint16 {
	return binary.LittleEndian.Uint16(p)
}
