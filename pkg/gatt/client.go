// Package gatt is a client-side driver for a BLE GATT service spoken over
// the BGAPI command/event protocol of a BLED112 serial dongle.
//
// The client is single-threaded and fully synchronous: every operation
// issues commands and blocks on transport reads until the answer arrives.
// Events and responses are handled strictly in the order the transport
// delivers them; unsolicited attribute value events that overtake an awaited
// response are deferred, never dropped, and replayed in arrival order by the
// next Listen call. The client is not reentrant - callers running it from
// several goroutines must serialize access themselves.
package gatt

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/srg/bgatt/internal/bgapi"
)

// Direct connect parameters. The profile this driver targets fixes them;
// they are not tunable knobs. Intervals and timeout are in protocol units
// (1.25 ms and 10 ms respectively).
const (
	connIntervalMin uint16 = 6
	connIntervalMax uint16 = 6
	connTimeout     uint16 = 64
	connLatency     uint16 = 0
)

// connectionSlots is the number of simultaneous connection contexts the
// dongle hardware supports.
const connectionSlots = 3

// Handle range swept by characteristic enumeration.
const (
	firstAttributeHandle uint16 = 0x0001
	lastAttributeHandle  uint16 = 0xFFFF
)

// connState couples the connected flag, the active slot and the peer
// address: all three are set and cleared together, so the address can never
// be observed without a live connection behind it.
type connState struct {
	connected bool
	slot      uint8
	addr      Address
}

// Client drives one logical GATT connection through a BGAPI transport.
type Client struct {
	t      Transport
	logger *logrus.Logger
	state  connState
	queue  eventQueue
}

// NewClient wraps a transport. A nil logger gets a default one.
func NewClient(t Transport, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{t: t, logger: logger}
}

// await reads messages until one of type T arrives. Unsolicited attribute
// value events seen on the way are notifications that overtook the awaited
// message; they are deferred for the next Listen call, never dropped. Any
// other type means the stream is not where the protocol says it should be.
func await[T bgapi.Message](c *Client) (T, error) {
	var zero T
	for {
		msg, err := c.t.ReadMessage()
		if err != nil {
			return zero, err
		}
		if m, ok := msg.(T); ok {
			return m, nil
		}
		if ev, ok := msg.(bgapi.AttributeValueEvent); ok {
			c.deferEvent(ev)
			continue
		}
		return zero, fmt.Errorf("expected %T, got %T", zero, msg)
	}
}

// deferEvent queues an attribute value event that arrived while something else
// was awaited.
func (c *Client) deferEvent(ev bgapi.AttributeValueEvent) {
	c.queue.push(Notification{Handle: ev.Handle, Payload: ev.Value})
	c.logger.WithFields(logrus.Fields{
		"handle":   fmt.Sprintf("0x%04X", ev.Handle),
		"deferred": c.queue.len(),
	}).Debug("Deferred unsolicited attribute value")
}

// Discover runs a general discovery procedure, handing every scan response
// to onDevice as (signal strength, address, advertising payload). Discovery
// is caller-driven: the loop stops the moment onDevice returns false, after
// which the procedure is ended and its acknowledgment awaited.
//
// Traffic other than scan responses seen here is discarded, not buffered;
// the deferred-event machinery covers attribute reads only.
func (c *Client) Discover(onDevice func(rssi int8, addr Address, adv []byte) bool) error {
	if err := c.t.WriteCommand(bgapi.GapDiscover{Mode: bgapi.DiscoverGeneric}); err != nil {
		return err
	}

	c.logger.Debug("Discovery started")
	for running := true; running; {
		msg, err := c.t.ReadMessage()
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case bgapi.GapDiscoverResponse:
			// ack for the discover command, nothing to deliver
		case bgapi.ScanResponseEvent:
			running = onDevice(m.RSSI, Address(m.Sender), m.Data)
		default:
			c.logger.WithField("message", fmt.Sprintf("%T", msg)).Debug("Discarding message during discovery")
		}
	}

	if err := c.t.WriteCommand(bgapi.GapEndProcedure{}); err != nil {
		return err
	}
	if _, err := await[bgapi.GapEndProcedureResponse](c); err != nil {
		return err
	}
	c.logger.Debug("Discovery ended")
	return nil
}

// Connect establishes a connection to the given address.
//
// It first polls the three connection slots: if the dongle kept a link to
// this address alive from an earlier session, that slot is adopted and no
// new connection is opened. Reviving a slot is only safe while no attribute
// traffic has gone over it yet; the driver does not enforce that, the caller
// guarantees it.
//
// With no slot to revive, a direct connection is opened with the fixed
// connection parameters and the state is updated once the dongle confirms
// the link.
func (c *Client) Connect(addr Address) error {
	for slot := uint8(0); slot < connectionSlots; slot++ {
		if err := c.t.WriteCommand(bgapi.ConnectionGetStatus{Connection: slot}); err != nil {
			return err
		}
		if _, err := await[bgapi.ConnectionGetStatusResponse](c); err != nil {
			return err
		}
		status, err := await[bgapi.ConnectionStatusEvent](c)
		if err != nil {
			return err
		}
		if status.Flags&bgapi.ConnectionConnected != 0 && Address(status.Address) == addr {
			c.state = connState{connected: true, slot: slot, addr: addr}
			c.logger.WithFields(logrus.Fields{
				"slot":    slot,
				"address": addr.String(),
			}).Info("Adopted existing connection")
			return nil
		}
	}

	cmd := bgapi.GapConnectDirect{
		Address:     [6]byte(addr),
		AddressType: bgapi.AddressTypePublic,
		IntervalMin: connIntervalMin,
		IntervalMax: connIntervalMax,
		Timeout:     connTimeout,
		Latency:     connLatency,
	}
	if err := c.t.WriteCommand(cmd); err != nil {
		return err
	}
	resp, err := await[bgapi.GapConnectDirectResponse](c)
	if err != nil {
		return err
	}
	if _, err := await[bgapi.ConnectionStatusEvent](c); err != nil {
		return err
	}

	c.state = connState{connected: true, slot: resp.Connection, addr: addr}
	c.logger.WithFields(logrus.Fields{
		"slot":    resp.Connection,
		"address": addr.String(),
	}).Info("Connected")
	return nil
}

// ConnectString parses a colon-hex address and connects to it.
func (c *Client) ConnectString(addr string) error {
	a, err := ParseAddress(addr)
	if err != nil {
		return err
	}
	return c.Connect(a)
}

// Disconnect drops the link on the given slot. The command is issued and
// acknowledged unconditionally - disconnecting an idle slot is legal and a
// no-op beyond the ack. Only when the slot is the active connection does the
// call also wait for the disconnected event and clear the state.
func (c *Client) Disconnect(slot uint8) error {
	if err := c.t.WriteCommand(bgapi.ConnectionDisconnect{Connection: slot}); err != nil {
		return err
	}
	if _, err := await[bgapi.ConnectionDisconnectResponse](c); err != nil {
		return err
	}

	if c.state.connected && c.state.slot == slot {
		if _, err := await[bgapi.DisconnectedEvent](c); err != nil {
			return err
		}
		c.state = connState{}
		c.logger.WithField("slot", slot).Info("Disconnected")
	}
	return nil
}

// DisconnectActive disconnects the currently active slot.
func (c *Client) DisconnectActive() error {
	return c.Disconnect(c.state.slot)
}

// DisconnectAll disconnects every slot the hardware has, connected or not.
// Meant for shutdown cleanup, so no connection survives on the dongle side.
func (c *Client) DisconnectAll() error {
	for slot := uint8(0); slot < connectionSlots; slot++ {
		if err := c.Disconnect(slot); err != nil {
			return err
		}
	}
	return nil
}

// Connected reports whether a connection is established.
func (c *Client) Connected() bool {
	return c.state.connected
}

// Address returns the peer address of the active connection, or
// ErrNotConnected when there is none.
func (c *Client) Address() (Address, error) {
	if !c.state.connected {
		return Address{}, &StateError{Op: "address"}
	}
	return c.state.addr, nil
}

// WriteAttribute writes an attribute value and blocks until the peripheral
// confirms completion: command, write acknowledgment, then the procedure
// completed event. The payload must fit the protocol's one byte length
// field.
func (c *Client) WriteAttribute(handle uint16, payload []byte) error {
	if len(payload) > math.MaxUint8 {
		return fmt.Errorf("attribute payload is %d bytes, at most %d fit the length field", len(payload), math.MaxUint8)
	}

	cmd := bgapi.AttributeWrite{
		Connection: c.state.slot,
		Handle:     handle,
		Data:       payload,
	}
	if err := c.t.WriteCommand(cmd); err != nil {
		return err
	}
	if _, err := await[bgapi.AttributeWriteResponse](c); err != nil {
		return err
	}
	if _, err := await[bgapi.ProcedureCompletedEvent](c); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"handle": fmt.Sprintf("0x%04X", handle),
		"bytes":  len(payload),
	}).Debug("Attribute written")
	return nil
}

// ReadAttribute reads the value of the attribute at the given handle.
//
// After the read command is acknowledged, attribute value events are
// consumed until one carries the requested handle. Events for other handles
// are unsolicited notifications that overtook the response on the shared
// stream; each is deferred for the next Listen call, in arrival order. The
// loop has no bound of its own - if the matching event never comes, any
// timeout is the transport's to raise.
func (c *Client) ReadAttribute(handle uint16) ([]byte, error) {
	if err := c.t.WriteCommand(bgapi.ReadByHandle{Connection: c.state.slot, Handle: handle}); err != nil {
		return nil, err
	}
	if _, err := await[bgapi.ReadByHandleResponse](c); err != nil {
		return nil, err
	}

	for {
		ev, err := await[bgapi.AttributeValueEvent](c)
		if err != nil {
			return nil, err
		}
		if ev.Handle != handle {
			c.deferEvent(ev)
			continue
		}
		if int(ev.Length) != len(ev.Value) {
			return nil, &ProtocolError{Field: "attribute value", Declared: int(ev.Length), Actual: len(ev.Value)}
		}
		return ev.Value, nil
	}
}

// Listen delivers notifications to onNotification: first every event
// deferred by earlier reads, in arrival order, then exactly one freshly read
// attribute value event. Call Listen in a loop to keep receiving - one live
// event per call is deliberate, since the driver cannot know how many
// buffered versus live events the caller wants handled at a time.
func (c *Client) Listen(onNotification func(handle uint16, payload []byte)) error {
	for _, n := range c.queue.drain() {
		onNotification(n.Handle, n.Payload)
	}

	ev, err := await[bgapi.AttributeValueEvent](c)
	if err != nil {
		return err
	}
	onNotification(ev.Handle, ev.Value)
	return nil
}

// Characteristics enumerates the peripheral's attributes over the full
// handle range and returns a fresh UUID-to-handle directory. The procedure
// completed event terminates the enumeration.
func (c *Client) Characteristics() (*Directory, error) {
	cmd := bgapi.FindInformation{
		Connection: c.state.slot,
		Start:      firstAttributeHandle,
		End:        lastAttributeHandle,
	}
	if err := c.t.WriteCommand(cmd); err != nil {
		return nil, err
	}
	if _, err := await[bgapi.FindInformationResponse](c); err != nil {
		return nil, err
	}

	dir := NewDirectory()
	for {
		msg, err := c.t.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch m := msg.(type) {
		case bgapi.FindInformationFoundEvent:
			if int(m.Length) != len(m.UUID) {
				return nil, &ProtocolError{Field: "uuid", Declared: int(m.Length), Actual: len(m.UUID)}
			}
			dir.put(m.UUID, m.Handle)
		case bgapi.ProcedureCompletedEvent:
			c.logger.WithField("characteristics", dir.Len()).Debug("Enumeration completed")
			return dir, nil
		case bgapi.AttributeValueEvent:
			c.deferEvent(m)
		default:
			return nil, fmt.Errorf("expected find information traffic, got %T", msg)
		}
	}
}
