package wsframe

import "github.com/corvidkit/corvid/wire"

// state is the receive-state machine's current stage.
type state int

const (
	waitingFByte state = iota
	waitingSByte
	waitingLength
	waitingData
)

// Decoder is a byte-driven streaming RFC 6455 frame decoder. Feed may be
// called with arbitrarily small or large chunks — including one byte at a
// time — and it will emit exactly the frames completed by the bytes fed so
// far, without ever blocking for a frame boundary.
type Decoder struct {
	st state

	fbyte byte
	sbyte byte

	bytesNeeded int
	lengthBuf   []byte
	length      int

	masked             bool
	mask               [4]byte
	maskBytesRemaining int
	payload            []byte
}

// NewDecoder returns a Decoder ready to consume bytes from WAITING_FBYTE.
func NewDecoder() *Decoder {
	return &Decoder{st: waitingFByte}
}

// Feed consumes data and returns every Frame completed as a result. Partial
// frames are retained in the Decoder's internal state across calls.
func (d *Decoder) Feed(data []byte) []Frame {
	var out []Frame
	pos := 0
	// The second condition lets a frame whose payload (and mask) is already
	// complete be emitted even when no input bytes remain, e.g. an unmasked
	// zero-length frame ending the chunk.
	for pos < len(data) || (d.st == waitingData && d.bytesNeeded == 0 && d.maskBytesRemaining == 0) {
		switch d.st {
		case waitingFByte:
			d.fbyte = data[pos]
			pos++
			d.st = waitingSByte

		case waitingSByte:
			d.sbyte = data[pos]
			pos++
			code := GetLength(d.sbyte)
			d.masked = GetMask(d.sbyte)
			switch {
			case code <= 125:
				d.length = int(code)
				d.bytesNeeded = d.length
				d.payload = make([]byte, 0, d.length)
				d.st = waitingData
			case code == 126:
				d.bytesNeeded = int(wire.Extended16.Size())
				d.lengthBuf = d.lengthBuf[:0]
				d.st = waitingLength
			default: // 127
				d.bytesNeeded = int(wire.Extended64.Size())
				d.lengthBuf = d.lengthBuf[:0]
				d.st = waitingLength
			}
			// The mask key, if present, directly follows the (possibly
			// extended) length field and is read as the first 4 bytes
			// consumed once WAITING_DATA is reached.
			if d.masked {
				d.maskBytesRemaining = 4
			}

		case waitingLength:
			take := d.bytesNeeded
			if avail := len(data) - pos; avail < take {
				take = avail
			}
			d.lengthBuf = append(d.lengthBuf, data[pos:pos+take]...)
			pos += take
			d.bytesNeeded -= take
			if d.bytesNeeded == 0 {
				if len(d.lengthBuf) == int(wire.Extended16.Size()) {
					d.length = int(wire.Extended16.Uint(d.lengthBuf, "len"))
				} else {
					d.length = int(wire.Extended64.Uint(d.lengthBuf, "len"))
				}
				d.bytesNeeded = d.length
				d.payload = make([]byte, 0, d.length)
				d.st = waitingData
				if d.masked {
					d.maskBytesRemaining = 4
				}
			}

		case waitingData:
			if d.masked && d.maskBytesRemaining > 0 {
				take := d.maskBytesRemaining
				if avail := len(data) - pos; avail < take {
					take = avail
				}
				copy(d.mask[4-d.maskBytesRemaining:], data[pos:pos+take])
				pos += take
				d.maskBytesRemaining -= take
				if d.maskBytesRemaining > 0 {
					continue
				}
			}

			take := d.bytesNeeded
			if avail := len(data) - pos; avail < take {
				take = avail
			}
			start := len(d.payload)
			d.payload = append(d.payload, data[pos:pos+take]...)
			if d.masked {
				for i := 0; i < take; i++ {
					d.payload[start+i] ^= d.mask[(start+i)%4]
				}
			}
			pos += take
			d.bytesNeeded -= take

			if d.bytesNeeded == 0 {
				out = append(out, Frame{
					Fin:     GetFin(d.fbyte),
					Rsv1:    GetRsv1(d.fbyte),
					Rsv2:    GetRsv2(d.fbyte),
					Rsv3:    GetRsv3(d.fbyte),
					Opcode:  GetOpcode(d.fbyte),
					Masked:  d.masked,
					Mask:    d.mask,
					Payload: d.payload,
				})
				d.reset()
			}
		}
	}
	return out
}

func (d *Decoder) reset() {
	d.st = waitingFByte
	d.length = 0
	d.bytesNeeded = 0
	d.payload = nil
	d.mask = [4]byte{}
	d.maskBytesRemaining = 0
}
