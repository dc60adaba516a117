package gatt

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Directory maps characteristic UUIDs to their attribute handles, preserving
// the order the peripheral reported them in. A UUID reported twice keeps the
// handle seen last. Built fresh by each Characteristics call; it has no
// identity of its own.
type Directory struct {
	m *orderedmap.OrderedMap[string, uint16]
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{m: orderedmap.New[string, uint16]()}
}

// put records a UUID, given in wire byte order, against its handle.
func (d *Directory) put(wireUUID []byte, handle uint16) {
	d.m.Set(UUIDString(wireUUID), handle)
}

// Handle looks up the attribute handle for a characteristic UUID. The text
// is normalized, so "0x2A00", "2a00" and dashed 128-bit forms all resolve.
func (d *Directory) Handle(uuid string) (uint16, bool) {
	return d.m.Get(NormalizeUUID(uuid))
}

// Len reports the number of characteristics discovered.
func (d *Directory) Len() int {
	return d.m.Len()
}

// Each visits every entry in discovery order.
func (d *Directory) Each(fn func(uuid string, handle uint16)) {
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}
