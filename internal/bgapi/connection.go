package bgapi

// Connection class message identifiers.
const (
	msgConnectionDisconnect uint8 = 0
	msgConnectionGetStatus  uint8 = 7

	evtConnectionStatus       uint8 = 0
	evtConnectionDisconnected uint8 = 4
)

// ConnectionStatusEvent flag bits.
const (
	ConnectionConnected uint8 = 1 << 0
	ConnectionEncrypted uint8 = 1 << 1
	ConnectionCompleted uint8 = 1 << 2
	ConnectionParamsSet uint8 = 1 << 3
)

// ConnectionDisconnect asks the dongle to drop the link on a slot.
type ConnectionDisconnect struct {
	Connection uint8
}

func (ConnectionDisconnect) ClassID() uint8   { return ClassConnection }
func (ConnectionDisconnect) MessageID() uint8 { return msgConnectionDisconnect }

func (c ConnectionDisconnect) appendPayload(b []byte) []byte {
	return append(b, c.Connection)
}

// ConnectionDisconnectResponse acknowledges a ConnectionDisconnect command.
// Disconnecting a slot without a live link is legal; the ack still arrives.
type ConnectionDisconnectResponse struct {
	Connection uint8
	Result     uint16
}

func (ConnectionDisconnectResponse) ClassID() uint8   { return ClassConnection }
func (ConnectionDisconnectResponse) MessageID() uint8 { return msgConnectionDisconnect }

func decodeConnectionDisconnectResponse(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("connection disconnect response", 3, len(p))
	}
	return ConnectionDisconnectResponse{Connection: p[0], Result: u16(p[1:])}, nil
}

// ConnectionGetStatus asks the dongle to report the state of one slot. The
// answer arrives as a ConnectionStatusEvent following the response.
type ConnectionGetStatus struct {
	Connection uint8
}

func (ConnectionGetStatus) ClassID() uint8   { return ClassConnection }
func (ConnectionGetStatus) MessageID() uint8 { return msgConnectionGetStatus }

func (c ConnectionGetStatus) appendPayload(b []byte) []byte {
	return append(b, c.Connection)
}

// ConnectionGetStatusResponse acknowledges a ConnectionGetStatus command.
type ConnectionGetStatusResponse struct {
	Connection uint8
}

func (ConnectionGetStatusResponse) ClassID() uint8   { return ClassConnection }
func (ConnectionGetStatusResponse) MessageID() uint8 { return msgConnectionGetStatus }

func decodeConnectionGetStatusResponse(p []byte) (Message, error) {
	if len(p) < 1 {
		return nil, truncated("connection get status response", 1, len(p))
	}
	return ConnectionGetStatusResponse{Connection: p[0]}, nil
}

// ConnectionStatusEvent reports the state of a connection slot, either in
// answer to ConnectionGetStatus or when a link comes up.
type ConnectionStatusEvent struct {
	Connection  uint8
	Flags       uint8
	Address     [6]byte
	AddressType uint8
	Interval    uint16
	Timeout     uint16
	Latency     uint16
	Bonding     uint8
}

func (ConnectionStatusEvent) ClassID() uint8   { return ClassConnection }
func (ConnectionStatusEvent) MessageID() uint8 { return evtConnectionStatus }

func decodeConnectionStatusEvent(p []byte) (Message, error) {
	if len(p) < 16 {
		return nil, truncated("connection status event", 16, len(p))
	}
	ev := ConnectionStatusEvent{
		Connection:  p[0],
		Flags:       p[1],
		AddressType: p[8],
		Interval:    u16(p[9:]),
		Timeout:     u16(p[11:]),
		Latency:     u16(p[13:]),
		Bonding:     p[15],
	}
	copy(ev.Address[:], p[2:8])
	return ev, nil
}

// DisconnectedEvent reports that the link on a slot went down.
type DisconnectedEvent struct {
	Connection uint8
	Reason     uint16
}

func (DisconnectedEvent) ClassID() uint8   { return ClassConnection }
func (DisconnectedEvent) MessageID() uint8 { return evtConnectionDisconnected }

func decodeDisconnectedEvent(p []byte) (Message, error) {
	if len(p) < 3 {
		return nil, truncated("connection disconnected event", 3, len(p))
	}
	return DisconnectedEvent{Connection: p[0], Reason: u16(p[1:])}, nil
}
