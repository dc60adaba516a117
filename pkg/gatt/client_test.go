package gatt_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/bgatt/internal/bgapi"
	"github.com/srg/bgatt/internal/testutils"
	"github.com/srg/bgatt/pkg/gatt"
)

// scriptedTransport serves a fixed sequence of incoming messages and records
// every command written, in order.
type scriptedTransport struct {
	incoming []bgapi.Message
	commands []bgapi.Command
}

func (s *scriptedTransport) WriteCommand(cmd bgapi.Command) error {
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *scriptedTransport) ReadMessage() (bgapi.Message, error) {
	if len(s.incoming) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	m := s.incoming[0]
	s.incoming = s.incoming[1:]
	return m, nil
}

var peerAddr = gatt.Address{0xef, 0xcd, 0xab, 0x80, 0x07, 0x00} // 00:07:80:ab:cd:ef

// idleStatus is the status event an unconnected slot answers with.
func idleStatus(slot uint8) bgapi.ConnectionStatusEvent {
	return bgapi.ConnectionStatusEvent{Connection: slot}
}

// liveStatus is the status event a connected slot answers with.
func liveStatus(slot uint8, addr gatt.Address) bgapi.ConnectionStatusEvent {
	return bgapi.ConnectionStatusEvent{
		Connection: slot,
		Flags:      bgapi.ConnectionConnected | bgapi.ConnectionCompleted,
		Address:    [6]byte(addr),
	}
}

// connectFreshScript answers three idle slot polls, then the connect
// handshake that lands on the given slot.
func connectFreshScript(slot uint8, addr gatt.Address) []bgapi.Message {
	return []bgapi.Message{
		bgapi.ConnectionGetStatusResponse{Connection: 0}, idleStatus(0),
		bgapi.ConnectionGetStatusResponse{Connection: 1}, idleStatus(1),
		bgapi.ConnectionGetStatusResponse{Connection: 2}, idleStatus(2),
		bgapi.GapConnectDirectResponse{Connection: slot},
		liveStatus(slot, addr),
	}
}

// connectedClient returns a client already connected to peerAddr on slot 0,
// with the given script queued behind the handshake.
func connectedClient(t *testing.T, script ...bgapi.Message) (*gatt.Client, *scriptedTransport) {
	t.Helper()
	tr := &scriptedTransport{incoming: append(connectFreshScript(0, peerAddr), script...)}
	client := gatt.NewClient(tr, testutils.NewTestHelper(t).Logger)
	require.NoError(t, client.Connect(peerAddr))
	tr.commands = nil
	return client, tr
}

func TestClientConnect(t *testing.T) {
	t.Run("opens a direct connection when no slot holds the address", func(t *testing.T) {
		tr := &scriptedTransport{incoming: connectFreshScript(1, peerAddr)}
		client := gatt.NewClient(tr, nil)

		require.NoError(t, client.Connect(peerAddr))

		assert.True(t, client.Connected())
		addr, err := client.Address()
		require.NoError(t, err)
		assert.Equal(t, peerAddr, addr)

		// Three status polls then exactly one connect command
		require.Len(t, tr.commands, 4)
		connect, ok := tr.commands[3].(bgapi.GapConnectDirect)
		require.True(t, ok, "expected GapConnectDirect, got %T", tr.commands[3])
		assert.Equal(t, [6]byte(peerAddr), connect.Address)
		assert.Equal(t, bgapi.AddressTypePublic, connect.AddressType)
		assert.Equal(t, uint16(6), connect.IntervalMin)
		assert.Equal(t, uint16(6), connect.IntervalMax)
		assert.Equal(t, uint16(64), connect.Timeout)
		assert.Equal(t, uint16(0), connect.Latency)
	})

	t.Run("adopts a slot the dongle kept alive", func(t *testing.T) {
		tr := &scriptedTransport{incoming: []bgapi.Message{
			bgapi.ConnectionGetStatusResponse{Connection: 0}, idleStatus(0),
			bgapi.ConnectionGetStatusResponse{Connection: 1}, liveStatus(1, peerAddr),
		}}
		helper := testutils.NewTestHelper(t)
		client := gatt.NewClient(tr, helper.Logger)

		require.NoError(t, client.Connect(peerAddr))
		assert.Equal(t, "Adopted existing connection", helper.LastLogMessage())

		assert.True(t, client.Connected())
		addr, err := client.Address()
		require.NoError(t, err)
		assert.Equal(t, peerAddr, addr)

		// Polling stops at the revived slot and no connect command goes out
		require.Len(t, tr.commands, 2)
		for _, cmd := range tr.commands {
			_, ok := cmd.(bgapi.ConnectionGetStatus)
			assert.True(t, ok, "expected ConnectionGetStatus, got %T", cmd)
		}
	})

	t.Run("ignores a slot connected to a different address", func(t *testing.T) {
		other := gatt.Address{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
		tr := &scriptedTransport{incoming: []bgapi.Message{
			bgapi.ConnectionGetStatusResponse{Connection: 0}, liveStatus(0, other),
			bgapi.ConnectionGetStatusResponse{Connection: 1}, idleStatus(1),
			bgapi.ConnectionGetStatusResponse{Connection: 2}, idleStatus(2),
			bgapi.GapConnectDirectResponse{Connection: 2},
			liveStatus(2, peerAddr),
		}}
		client := gatt.NewClient(tr, nil)

		require.NoError(t, client.Connect(peerAddr))

		_, isConnect := tr.commands[len(tr.commands)-1].(bgapi.GapConnectDirect)
		assert.True(t, isConnect)
	})
}

func TestClientConnectString(t *testing.T) {
	t.Run("rejects a malformed address without touching the transport", func(t *testing.T) {
		tr := &scriptedTransport{}
		client := gatt.NewClient(tr, nil)

		err := client.ConnectString("not-an-address")

		var formatErr *gatt.FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Empty(t, tr.commands)
	})
}

func TestClientAddress(t *testing.T) {
	t.Run("fails when not connected", func(t *testing.T) {
		client := gatt.NewClient(&scriptedTransport{}, nil)

		_, err := client.Address()

		assert.ErrorIs(t, err, gatt.ErrNotConnected)
	})
}

func TestClientDisconnect(t *testing.T) {
	t.Run("clears state only for the active slot", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ConnectionDisconnectResponse{Connection: 0},
			bgapi.DisconnectedEvent{Connection: 0},
		)

		require.NoError(t, client.Disconnect(0))

		assert.False(t, client.Connected())
		_, err := client.Address()
		assert.ErrorIs(t, err, gatt.ErrNotConnected)
	})

	t.Run("acks an idle slot without waiting for a disconnected event", func(t *testing.T) {
		client, tr := connectedClient(t,
			bgapi.ConnectionDisconnectResponse{Connection: 2},
		)

		require.NoError(t, client.Disconnect(2))

		assert.True(t, client.Connected())
		assert.Empty(t, tr.incoming, "idle slot must consume only the ack")
	})

	t.Run("defers notifications that overtake the teardown", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ConnectionDisconnectResponse{Connection: 0},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xaa}},
			bgapi.DisconnectedEvent{Connection: 0},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xbb}},
		)

		require.NoError(t, client.Disconnect(0))
		assert.False(t, client.Connected())

		var payloads [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			payloads = append(payloads, payload)
		}))
		assert.Equal(t, [][]byte{{0xaa}, {0xbb}}, payloads)
	})

	t.Run("disconnect all sweeps every slot", func(t *testing.T) {
		client, tr := connectedClient(t,
			bgapi.ConnectionDisconnectResponse{Connection: 0},
			bgapi.DisconnectedEvent{Connection: 0},
			bgapi.ConnectionDisconnectResponse{Connection: 1},
			bgapi.ConnectionDisconnectResponse{Connection: 2},
		)

		require.NoError(t, client.DisconnectAll())

		assert.False(t, client.Connected())
		require.Len(t, tr.commands, 3)
		for slot, cmd := range tr.commands {
			disconnect, ok := cmd.(bgapi.ConnectionDisconnect)
			require.True(t, ok, "expected ConnectionDisconnect, got %T", cmd)
			assert.Equal(t, uint8(slot), disconnect.Connection)
		}
	})
}

func TestClientDiscover(t *testing.T) {
	t.Run("stops when the callback declines and ends the procedure once", func(t *testing.T) {
		tr := &scriptedTransport{incoming: []bgapi.Message{
			bgapi.GapDiscoverResponse{},
			bgapi.ScanResponseEvent{RSSI: -40, Sender: [6]byte(peerAddr), Data: []byte{0x02, 0x01, 0x06}},
			bgapi.GapEndProcedureResponse{},
			// Leftovers the loop must never reach
			bgapi.ScanResponseEvent{RSSI: -90},
		}}
		client := gatt.NewClient(tr, nil)

		var seen []gatt.Address
		err := client.Discover(func(rssi int8, addr gatt.Address, adv []byte) bool {
			seen = append(seen, addr)
			return false
		})

		require.NoError(t, err)
		require.Len(t, seen, 1)
		assert.Equal(t, peerAddr, seen[0])

		ends := 0
		for _, cmd := range tr.commands {
			if _, ok := cmd.(bgapi.GapEndProcedure); ok {
				ends++
			}
		}
		assert.Equal(t, 1, ends)
		assert.Len(t, tr.incoming, 1, "messages after the end ack stay unread")
	})

	t.Run("keeps scanning while the callback accepts", func(t *testing.T) {
		tr := &scriptedTransport{incoming: []bgapi.Message{
			bgapi.GapDiscoverResponse{},
			bgapi.ScanResponseEvent{RSSI: -40},
			bgapi.ScanResponseEvent{RSSI: -55},
			bgapi.ScanResponseEvent{RSSI: -70},
			bgapi.GapEndProcedureResponse{},
		}}
		client := gatt.NewClient(tr, nil)

		var rssis []int8
		err := client.Discover(func(rssi int8, addr gatt.Address, adv []byte) bool {
			rssis = append(rssis, rssi)
			return len(rssis) < 3
		})

		require.NoError(t, err)
		assert.Equal(t, []int8{-40, -55, -70}, rssis)
	})

	t.Run("discards unrelated traffic during discovery", func(t *testing.T) {
		tr := &scriptedTransport{incoming: []bgapi.Message{
			bgapi.GapDiscoverResponse{},
			bgapi.DisconnectedEvent{Connection: 2},
			bgapi.ScanResponseEvent{RSSI: -40},
			bgapi.GapEndProcedureResponse{},
		}}
		client := gatt.NewClient(tr, nil)

		calls := 0
		err := client.Discover(func(rssi int8, addr gatt.Address, adv []byte) bool {
			calls++
			return false
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestClientWriteAttribute(t *testing.T) {
	t.Run("waits for ack and completion", func(t *testing.T) {
		client, tr := connectedClient(t,
			bgapi.AttributeWriteResponse{},
			bgapi.ProcedureCompletedEvent{Handle: 0x0021},
		)

		require.NoError(t, client.WriteAttribute(0x0021, []byte{0x01, 0xff}))

		require.Len(t, tr.commands, 1)
		write, ok := tr.commands[0].(bgapi.AttributeWrite)
		require.True(t, ok)
		assert.Equal(t, uint16(0x0021), write.Handle)
		assert.Equal(t, []byte{0x01, 0xff}, write.Data)
		assert.Empty(t, tr.incoming)
	})

	t.Run("defers notifications that overtake the handshake", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xaa}},
			bgapi.AttributeWriteResponse{},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xbb}},
			bgapi.ProcedureCompletedEvent{Handle: 0x0021},
			// Live event for the Listen call below
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xcc}},
		)

		require.NoError(t, client.WriteAttribute(0x0021, []byte{0x01}))

		var payloads [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			assert.Equal(t, uint16(0x0030), handle)
			payloads = append(payloads, payload)
		}))
		assert.Equal(t, [][]byte{{0xaa}, {0xbb}, {0xcc}}, payloads)
	})

	t.Run("rejects a payload that overflows the length field", func(t *testing.T) {
		client, tr := connectedClient(t)

		err := client.WriteAttribute(0x0021, make([]byte, 256))

		require.Error(t, err)
		assert.Empty(t, tr.commands, "oversized payload must not reach the wire")
	})
}

func TestClientReadAttribute(t *testing.T) {
	t.Run("returns the value for the requested handle", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ReadByHandleResponse{},
			bgapi.AttributeValueEvent{Handle: 0x0021, Length: 2, Value: []byte{0xbe, 0xef}},
		)

		value, err := client.ReadAttribute(0x0021)

		require.NoError(t, err)
		assert.Equal(t, []byte{0xbe, 0xef}, value)
	})

	t.Run("defers values for other handles until Listen", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ReadByHandleResponse{},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xaa}},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xbb}},
			bgapi.AttributeValueEvent{Handle: 0x0021, Length: 1, Value: []byte{0x42}},
			// Live event for the Listen call below
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xcc}},
		)

		value, err := client.ReadAttribute(0x0021)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x42}, value)

		var payloads [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			assert.Equal(t, uint16(0x0030), handle)
			payloads = append(payloads, payload)
		}))

		// Deferred events replay in arrival order before the live one
		assert.Equal(t, [][]byte{{0xaa}, {0xbb}, {0xcc}}, payloads)
	})

	t.Run("replays deferred events exactly once", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ReadByHandleResponse{},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xaa}},
			bgapi.AttributeValueEvent{Handle: 0x0021, Length: 1, Value: []byte{0x42}},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xbb}},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xcc}},
		)

		_, err := client.ReadAttribute(0x0021)
		require.NoError(t, err)

		var first [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			first = append(first, payload)
		}))
		assert.Equal(t, [][]byte{{0xaa}, {0xbb}}, first)

		var second [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			second = append(second, payload)
		}))
		assert.Equal(t, [][]byte{{0xcc}}, second, "drained events must not replay again")
	})

	t.Run("fails on a length the payload does not match", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.ReadByHandleResponse{},
			bgapi.AttributeValueEvent{Handle: 0x0021, Length: 4, Value: []byte{0xbe, 0xef}},
		)

		_, err := client.ReadAttribute(0x0021)

		var protoErr *gatt.ProtocolError
		require.ErrorAs(t, err, &protoErr)
		assert.Equal(t, 4, protoErr.Declared)
		assert.Equal(t, 2, protoErr.Actual)
	})
}

func TestClientListen(t *testing.T) {
	t.Run("blocks for exactly one live event when nothing is deferred", func(t *testing.T) {
		client, tr := connectedClient(t,
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0x07}},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0x08}},
		)

		calls := 0
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			calls++
			assert.Equal(t, []byte{0x07}, payload)
		}))

		assert.Equal(t, 1, calls)
		assert.Len(t, tr.incoming, 1, "one Listen call reads one live event")
	})
}

func TestClientCharacteristics(t *testing.T) {
	t.Run("collects handles into a directory in discovery order", func(t *testing.T) {
		client, tr := connectedClient(t,
			bgapi.FindInformationResponse{},
			bgapi.FindInformationFoundEvent{Handle: 0x0003, Length: 2, UUID: []byte{0x00, 0x2a}},
			bgapi.FindInformationFoundEvent{Handle: 0x0021, Length: 2, UUID: []byte{0x39, 0x2a}},
			bgapi.ProcedureCompletedEvent{},
		)

		dir, err := client.Characteristics()

		require.NoError(t, err)
		assert.Equal(t, 2, dir.Len())

		h, ok := dir.Handle("2a00")
		require.True(t, ok)
		assert.Equal(t, uint16(0x0003), h)

		h, ok = dir.Handle("0x2A39")
		require.True(t, ok)
		assert.Equal(t, uint16(0x0021), h)

		require.Len(t, tr.commands, 1)
		find, ok := tr.commands[0].(bgapi.FindInformation)
		require.True(t, ok)
		assert.Equal(t, uint16(0x0001), find.Start)
		assert.Equal(t, uint16(0xffff), find.End)
	})

	t.Run("defers notifications arriving mid-enumeration", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.FindInformationResponse{},
			bgapi.FindInformationFoundEvent{Handle: 0x0003, Length: 2, UUID: []byte{0x00, 0x2a}},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xaa}},
			bgapi.ProcedureCompletedEvent{},
			bgapi.AttributeValueEvent{Handle: 0x0030, Length: 1, Value: []byte{0xbb}},
		)

		dir, err := client.Characteristics()
		require.NoError(t, err)
		assert.Equal(t, 1, dir.Len())

		var payloads [][]byte
		require.NoError(t, client.Listen(func(handle uint16, payload []byte) {
			payloads = append(payloads, payload)
		}))
		assert.Equal(t, [][]byte{{0xaa}, {0xbb}}, payloads)
	})

	t.Run("fails on a uuid length mismatch", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.FindInformationResponse{},
			bgapi.FindInformationFoundEvent{Handle: 0x0003, Length: 16, UUID: []byte{0x00, 0x2a}},
		)

		_, err := client.Characteristics()

		var protoErr *gatt.ProtocolError
		require.ErrorAs(t, err, &protoErr)
	})

	t.Run("fails on unexpected traffic mid-enumeration", func(t *testing.T) {
		client, _ := connectedClient(t,
			bgapi.FindInformationResponse{},
			bgapi.ScanResponseEvent{},
		)

		_, err := client.Characteristics()

		require.Error(t, err)
	})
}
