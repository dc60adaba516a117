package link

import (
	"fmt"

	"github.com/smallnest/ringbuffer"
	"github.com/srg/bgatt/internal/bgapi"
)

// framerCapacity is sized for several maximum-length BGAPI frames so a
// single serial read burst never overflows the ring.
const framerCapacity = 4 * (bgapi.HeaderLen + bgapi.MaxPayloadLen)

// framer reassembles BGAPI frames from an arbitrarily chunked byte stream.
// Bytes accumulate in a ring buffer; a frame is extracted once its header
// and the full payload the header declares are available.
type framer struct {
	rb      *ringbuffer.RingBuffer
	header  bgapi.Header
	inFrame bool
}

func newFramer() *framer {
	return &framer{rb: ringbuffer.New(framerCapacity)}
}

// feed appends raw bytes received from the serial port.
func (f *framer) feed(p []byte) error {
	if _, err := f.rb.Write(p); err != nil {
		return fmt.Errorf("link: buffer %d received bytes: %w", len(p), err)
	}
	return nil
}

// next extracts one complete frame if the buffered bytes allow it. The
// returned flag is false when more bytes are needed.
func (f *framer) next() (bgapi.Header, []byte, bool) {
	if !f.inFrame && f.rb.Length() >= bgapi.HeaderLen {
		var hdr [bgapi.HeaderLen]byte
		f.rb.Read(hdr[:]) //nolint:errcheck // length checked above
		f.header = bgapi.ParseHeader(hdr)
		f.inFrame = true
	}

	if !f.inFrame || f.rb.Length() < f.header.Length {
		return bgapi.Header{}, nil, false
	}

	payload := make([]byte, f.header.Length)
	if f.header.Length > 0 {
		f.rb.Read(payload) //nolint:errcheck // length checked above
	}
	f.inFrame = false
	return f.header, payload, true
}
