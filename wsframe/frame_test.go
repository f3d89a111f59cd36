package wsframe

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTripProperty exercises P2: decode(encode(p, masked=m)) yields a
// frame whose payload equals p and whose opcode/flags equal those supplied.
func TestRoundTripProperty(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("hello"),
		make([]byte, 200),   // forces the 126 extended-length form
		make([]byte, 70000), // forces the 127 extended-length form
	}
	rand.New(rand.NewSource(1)).Read(payloads[2])
	rand.New(rand.NewSource(2)).Read(payloads[3])

	for _, masked := range []bool{true, false} {
		for _, p := range payloads {
			opts := EncodeOptions{Opcode: OpBinary, Fin: true, Masked: masked}
			encoded := Encode(p, opts)

			dec := NewDecoder()
			frames := dec.Feed(encoded)
			require.Len(t, frames, 1)
			f := frames[0]
			assert.Equal(t, p, f.Payload)
			assert.Equal(t, OpBinary, f.Opcode)
			assert.True(t, f.Fin)
			assert.Equal(t, masked, f.Masked)
		}
	}
}

// TestFragmentedReceiveByteAtATime feeds the decoder the
// bytes of a valid masked TEXT frame one byte at a time across 10+
// data_received calls. The frame is delivered exactly once with the
// correct payload.
func TestFragmentedReceiveByteAtATime(t *testing.T) {
	payload := []byte("fragmented-payload-delivered-one-byte-at-a-time")
	encoded := Encode(payload, EncodeOptions{Opcode: OpText, Fin: true, Masked: true})
	require.Greater(t, len(encoded), 10)

	dec := NewDecoder()
	var got []Frame
	for _, b := range encoded {
		got = append(got, dec.Feed([]byte{b})...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0].Payload)
	assert.Equal(t, OpText, got[0].Opcode)
}

// TestMultipleFramesInOneFeed ensures frames delivered back-to-back in a
// single Feed call are both decoded, in order.
func TestMultipleFramesInOneFeed(t *testing.T) {
	a := Encode([]byte("first"), EncodeOptions{Opcode: OpText, Fin: true, Masked: true})
	b := Encode([]byte("second"), EncodeOptions{Opcode: OpText, Fin: true, Masked: true})

	dec := NewDecoder()
	frames := dec.Feed(append(a, b...))
	require.Len(t, frames, 2)
	assert.Equal(t, []byte("first"), frames[0].Payload)
	assert.Equal(t, []byte("second"), frames[1].Payload)
}

func TestBitAccessors(t *testing.T) {
	b := byte(0b10110010)
	assert.True(t, GetFin(b))
	assert.False(t, GetRsv1(b))
	assert.True(t, GetRsv2(b))
	assert.True(t, GetRsv3(b))
	assert.Equal(t, Opcode(0x2), GetOpcode(b))
}
