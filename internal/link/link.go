// Package link drives a BLED112 dongle over its USB serial port, turning the
// byte stream into decoded BGAPI messages and commands into wire frames.
//
// The link owns framing only. Which message answers which command, and what
// to do with unsolicited events, is the caller's concern.
package link

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/srg/bgatt/internal/bgapi"
	"github.com/tarm/serial"
)

// DefaultBaud is the rate the BLED112 enumerates at.
const DefaultBaud = 115200

// readChunk is the per-read scratch size; serial reads return whatever has
// arrived, frequently less.
const readChunk = 256

// Link is a synchronous BGAPI transport over a serial port.
type Link struct {
	port    io.ReadWriteCloser
	framer  *framer
	scratch []byte
	logger  *logrus.Logger
}

// Dial opens the serial port and wraps it in a Link.
func Dial(name string, baud int, logger *logrus.Logger) (*Link, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", name, err)
	}
	l := New(port, logger)
	l.logger.WithFields(logrus.Fields{
		"port": name,
		"baud": baud,
	}).Info("Serial link opened")
	return l, nil
}

// New wraps an already open byte stream. Used by Dial and by tests that
// substitute an in-memory stream for the port.
func New(rw io.ReadWriteCloser, logger *logrus.Logger) *Link {
	if logger == nil {
		logger = logrus.New()
	}
	return &Link{
		port:    rw,
		framer:  newFramer(),
		scratch: make([]byte, readChunk),
		logger:  logger,
	}
}

// WriteCommand encodes and sends one command frame.
func (l *Link) WriteCommand(cmd bgapi.Command) error {
	frame := bgapi.Marshal(cmd)
	if _, err := l.port.Write(frame); err != nil {
		return fmt.Errorf("link: write %T: %w", cmd, err)
	}
	l.logger.WithFields(logrus.Fields{
		"command": fmt.Sprintf("%T", cmd),
		"bytes":   len(frame),
	}).Debug("Command sent")
	return nil
}

// ReadMessage blocks until the next decodable message arrives. Frames the
// codec does not know are skipped with a warning; everything else, including
// port errors, surfaces to the caller.
func (l *Link) ReadMessage() (bgapi.Message, error) {
	for {
		hdr, payload, ok := l.framer.next()
		if !ok {
			n, err := l.port.Read(l.scratch)
			if n > 0 {
				if ferr := l.framer.feed(l.scratch[:n]); ferr != nil {
					return nil, ferr
				}
			}
			if err != nil {
				return nil, fmt.Errorf("link: read: %w", err)
			}
			continue
		}

		msg, err := bgapi.Unmarshal(hdr, payload)
		if err != nil {
			var unknown *bgapi.UnknownMessageError
			if errors.As(err, &unknown) {
				l.logger.WithFields(logrus.Fields{
					"class":   unknown.ClassID,
					"message": unknown.MessageID,
					"event":   unknown.Event,
				}).Warn("Skipping unsupported BGAPI packet")
				continue
			}
			return nil, err
		}

		l.logger.WithField("message", fmt.Sprintf("%T", msg)).Debug("Message received")
		return msg, nil
	}
}

// Close releases the serial port.
func (l *Link) Close() error {
	return l.port.Close()
}
