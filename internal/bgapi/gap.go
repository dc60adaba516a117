package bgapi

// GAP message identifiers.
const (
	msgGapDiscover      uint8 = 2
	msgGapConnectDirect uint8 = 3
	msgGapEndProcedure  uint8 = 4

	evtGapScanResponse uint8 = 0
)

// Discovery modes accepted by GapDiscover.
const (
	DiscoverLimited     uint8 = 0
	DiscoverGeneric     uint8 = 1
	DiscoverObservation uint8 = 2
)

// Address types carried in GAP packets.
const (
	AddressTypePublic uint8 = 0
	AddressTypeRandom uint8 = 1
)

// GapDiscover starts a GAP discovery procedure in the given mode.
type GapDiscover struct {
	Mode uint8
}

func (GapDiscover) ClassID() uint8   { return ClassGAP }
func (GapDiscover) MessageID() uint8 { return msgGapDiscover }

func (c GapDiscover) appendPayload(b []byte) []byte {
	return append(b, c.Mode)
}

// GapDiscoverResponse acknowledges a GapDiscover command.
type GapDiscoverResponse struct {
	Result uint16
}

func (GapDiscoverResponse) ClassID() uint8   { return ClassGAP }
func (GapDiscoverResponse) MessageID() uint8 { return msgGapDiscover }

func decodeGapDiscoverResponse(p []byte) (Message, error) {
	if len(p) < 2 {
		return nil, truncated("gap discover response", 2, len(p))
	}
	return GapDiscoverResponse{Result: u16(p)}, nil
}

// GapConnectDirect opens a direct connection to the given address.
type GapConnectDirect struct {
	Address     [6]byte
	AddressType uint8
	IntervalMin uint16
	IntervalMax uint16
	Timeout     uint16
	Latency     uint16
}

func (GapConnectDirect) ClassID() uint8   { return ClassGAP }
func (GapConnectDirect) MessageID() uint8 { return msgGapConnectDirect }

func (c GapConnectDirect) appendPayload(b []byte) []byte {
	b = append(b, c.Address[:]...)
	b = append(b, c.AddressType)
	b = appendUint16(b, c.IntervalMin)
	b = appendUint16(b, c.IntervalMax)
	b = appendUint16(b, c.Timeout)
	return appendUint16(b, c.Latency)
}

// GapConnectDirectResponse carries the slot the dongle assigned to the
// pending connection.
type GapConnectDirectResponse struct {
	Result     uint16
	Connection uint8
}

func (GapConnectDirectResponse) ClassID() uint8   { return ClassGAP }
func (GapConnectDirectResponse) MessageID() uint8 { return msgGapConnectDirect }

func decodeGapConnectDirectResponse(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("gap connect direct response", 3, len(p))
	}
	return GapConnectDirectResponse{Result: u16(p), Connection: p[2]}, nil
}

// GapEndProcedure aborts the running GAP procedure.
type GapEndProcedure struct{}

func (GapEndProcedure) ClassID() uint8   { return ClassGAP }
func (GapEndProcedure) MessageID() uint8 { return msgGapEndProcedure }

func (GapEndProcedure) appendPayload(b []byte) []byte { return b }

// GapEndProcedureResponse acknowledges a GapEndProcedure command.
type GapEndProcedureResponse struct {
	Result uint16
}

func (GapEndProcedureResponse) ClassID() uint8   { return ClassGAP }
func (GapEndProcedureResponse) MessageID() uint8 { return msgGapEndProcedure }

func decodeGapEndProcedureResponse(p []byte) (Message, error) {
	if len(p) < 2 {
		return nil, truncated("gap end procedure response", 2, len(p))
	}
	return GapEndProcedureResponse{Result: u16(p)}, nil
}

// ScanResponseEvent is one advertisement or scan response heard while a
// discovery procedure runs. Length is the declared advertising data size;
// Data holds the bytes actually received.
type ScanResponseEvent struct {
	RSSI        int8
	PacketType  uint8
	Sender      [6]byte
	AddressType uint8
	Bond        uint8
	Length      uint8
	Data        []byte
}

func (ScanResponseEvent) ClassID() uint8   { return ClassGAP }
func (ScanResponseEvent) MessageID() uint8 { return evtGapScanResponse }

func decodeScanResponseEvent(p []byte) (Message, error) {
	// rssi(1) packet_type(1) sender(6) address_type(1) bond(1) data_len(1) data
	if len(p) < 11 {
		return nil, truncated("gap scan response event", 11, len(p))
	}
	ev := ScanResponseEvent{
		RSSI:        int8(p[0]),
		PacketType:  p[1],
		AddressType: p[8],
		Bond:        p[9],
		Length:      p[10],
		Data:        append([]byte(nil), p[11:]...),
	}
	copy(ev.Sender[:], p[2:8])
	return ev, nil
}
