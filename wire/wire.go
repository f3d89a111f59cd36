// Package wire provides a small declarative fixed-layout binary record
// helper, the Go analogue of the descriptor-driven struct packer the
// platform's reference implementation builds frame headers with. It is used
// by wsframe to pack/unpack the RFC 6455 extended-length header fields
// instead of scattering encoding/binary calls through the codec.
package wire

import "encoding/binary"

// Width is the byte width of a fixed-layout field.
type Width int

const (
	Uint8  Width = 1
	Uint16 Width = 2
	Uint32 Width = 4
	Uint64 Width = 8
)

// Field describes one fixed-width, big- or little-endian field within a
// Layout.
type Field struct {
	Name  string
	Width Width
}

// Layout is an ordered list of Fields sharing one byte order, mirroring the
// reference implementation's declarative struct definitions.
type Layout struct {
	Order  binary.ByteOrder
	Fields []Field
}

// Size returns the total byte width of the layout.
func (l Layout) Size() int {
	n := 0
	for _, f := range l.Fields {
		n += int(f.Width)
	}
	return n
}

// PutUint writes v into buf at the field named name, using that field's
// configured width and the layout's byte order. It panics if name is not
// present in the layout or buf is too short — both are programmer errors,
// not runtime conditions, since layouts are fixed at compile time.
func (l Layout) PutUint(buf []byte, name string, v uint64) {
	off, f := l.offsetOf(name)
	switch f.Width {
	case Uint8:
		buf[off] = byte(v)
	case Uint16:
		l.Order.PutUint16(buf[off:], uint16(v))
	case Uint32:
		l.Order.PutUint32(buf[off:], uint32(v))
	case Uint64:
		l.Order.PutUint64(buf[off:], v)
	}
}

// Uint reads the field named name out of buf.
func (l Layout) Uint(buf []byte, name string) uint64 {
	off, f := l.offsetOf(name)
	switch f.Width {
	case Uint8:
		return uint64(buf[off])
	case Uint16:
		return uint64(l.Order.Uint16(buf[off:]))
	case Uint32:
		return uint64(l.Order.Uint32(buf[off:]))
	case Uint64:
		return l.Order.Uint64(buf[off:])
	}
	return 0
}

func (l Layout) offsetOf(name string) (int, Field) {
	off := 0
	for _, f := range l.Fields {
		if f.Name == name {
			return off, f
		}
		off += int(f.Width)
	}
	panic("wire: unknown field " + name)
}

// Extended16 and Extended64 are the two extended-length header layouts used
// by the WebSocket frame codec for the 126 and 127 length codes.
var (
	Extended16 = Layout{Order: binary.BigEndian, Fields: []Field{{"len", Uint16}}}
	Extended64 = Layout{Order: binary.BigEndian, Fields: []Field{{"len", Uint64}}}
)
