package bgapi

// Attribute client message identifiers.
const (
	msgAttclientFindInformation uint8 = 3
	msgAttclientReadByHandle    uint8 = 4
	msgAttclientAttributeWrite  uint8 = 5

	evtAttclientProcedureCompleted   uint8 = 1
	evtAttclientFindInformationFound uint8 = 4
	evtAttclientAttributeValue       uint8 = 5
)

// FindInformation enumerates attributes in a handle range. Results arrive as
// FindInformationFoundEvent packets, terminated by ProcedureCompletedEvent.
type FindInformation struct {
	Connection uint8
	Start      uint16
	End        uint16
}

func (FindInformation) ClassID() uint8   { return ClassAttclient }
func (FindInformation) MessageID() uint8 { return msgAttclientFindInformation }

func (c FindInformation) appendPayload(b []byte) []byte {
	b = append(b, c.Connection)
	b = appendUint16(b, c.Start)
	return appendUint16(b, c.End)
}

// FindInformationResponse acknowledges a FindInformation command.
type FindInformationResponse struct {
	Connection uint8
	Result     uint16
}

func (FindInformationResponse) ClassID() uint8   { return ClassAttclient }
func (FindInformationResponse) MessageID() uint8 { return msgAttclientFindInformation }

func decodeFindInformationResponse(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("find information response", 3, len(p))
	}
	return FindInformationResponse{Connection: p[0], Result: u16(p[1:])}, nil
}

// ReadByHandle reads the value of a single attribute. The value arrives as a
// separate AttributeValueEvent after the response.
type ReadByHandle struct {
	Connection uint8
	Handle     uint16
}

func (ReadByHandle) ClassID() uint8   { return ClassAttclient }
func (ReadByHandle) MessageID() uint8 { return msgAttclientReadByHandle }

func (c ReadByHandle) appendPayload(b []byte) []byte {
	b = append(b, c.Connection)
	return appendUint16(b, c.Handle)
}

// ReadByHandleResponse acknowledges a ReadByHandle command.
type ReadByHandleResponse struct {
	Connection uint8
	Result     uint16
}

func (ReadByHandleResponse) ClassID() uint8   { return ClassAttclient }
func (ReadByHandleResponse) MessageID() uint8 { return msgAttclientReadByHandle }

func decodeReadByHandleResponse(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("read by handle response", 3, len(p))
	}
	return ReadByHandleResponse{Connection: p[0], Result: u16(p[1:])}, nil
}

// AttributeWrite writes an attribute value with acknowledgement. The one
// byte length prefix on the wire caps Data at 255 bytes; callers enforce it.
type AttributeWrite struct {
	Connection uint8
	Handle     uint16
	Data       []byte
}

func (AttributeWrite) ClassID() uint8   { return ClassAttclient }
func (AttributeWrite) MessageID() uint8 { return msgAttclientAttributeWrite }

func (c AttributeWrite) appendPayload(b []byte) []byte {
	b = append(b, c.Connection)
	b = appendUint16(b, c.Handle)
	b = append(b, byte(len(c.Data)))
	return append(b, c.Data...)
}

// AttributeWriteResponse acknowledges an AttributeWrite command. The write
// itself completes with a ProcedureCompletedEvent.
type AttributeWriteResponse struct {
	Connection uint8
	Result     uint16
}

func (AttributeWriteResponse) ClassID() uint8   { return ClassAttclient }
func (AttributeWriteResponse) MessageID() uint8 { return msgAttclientAttributeWrite }

func decodeAttributeWriteResponse(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("attribute write response", 3, len(p))
	}
	return AttributeWriteResponse{Connection: p[0], Result: u16(p[1:])}, nil
}

// ProcedureCompletedEvent marks the end of a multi-response attribute
// procedure (acknowledged write, enumeration).
type ProcedureCompletedEvent struct {
	Connection uint8
	Result     uint16
	Handle     uint16
}

func (ProcedureCompletedEvent) ClassID() uint8   { return ClassAttclient }
func (ProcedureCompletedEvent) MessageID() uint8 { return evtAttclientProcedureCompleted }

func decodeProcedureCompletedEvent(p []byte) (Message, error) {
	if len(p) < 5 {
		return nil, truncated("procedure completed event", 5, len(p))
	}
	return ProcedureCompletedEvent{Connection: p[0], Result: u16(p[1:]), Handle: u16(p[3:])}, nil
}

// FindInformationFoundEvent is one attribute discovered by FindInformation.
// Length is the declared UUID size; UUID holds the bytes actually received,
// in wire (little-endian) order.
type FindInformationFoundEvent struct {
	Connection uint8
	Handle     uint16
	Length     uint8
	UUID       []byte
}

func (FindInformationFoundEvent) ClassID() uint8   { return ClassAttclient }
func (FindInformationFoundEvent) MessageID() uint8 { return evtAttclientFindInformationFound }

func decodeFindInformationFoundEvent(p []byte) (Message, error) {
	if len(p) < 4 {
		return nil, truncated("find information found event", 4, len(p))
	}
	return FindInformationFoundEvent{
		Connection: p[0],
		Handle:     u16(p[1:]),
		Length:     p[3],
		UUID:       append([]byte(nil), p[4:]...),
	}, nil
}

// AttributeValueEvent carries an attribute value, either answering a
// ReadByHandle or as an unsolicited notification. Length is the declared
// value size; Value holds the bytes actually received.
type AttributeValueEvent struct {
	Connection uint8
	Handle     uint16
	Type       uint8
	Length     uint8
	Value      []byte
}

func (AttributeValueEvent) ClassID() uint8   { return ClassAttclient }
func (AttributeValueEvent) MessageID() uint8 { return evtAttclientAttributeValue }

func decodeAttributeValueEvent(p []byte) (Message, error) {
	if len(p) < 5 {
		return nil, truncated("attribute value event", 5, len(p))
	}
	return AttributeValueEvent{
		Connection: p[0],
		Handle:     u16(p[1:]),
		Type:       p[3],
		Length:     p[4],
		Value:      append([]byte(nil), p[5:]...),
	}, nil
}
