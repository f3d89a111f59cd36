package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtended16RoundTrip(t *testing.T) {
	buf := make([]byte, Extended16.Size())
	Extended16.PutUint(buf, "len", 0xBEEF)
	assert.Equal(t, uint64(0xBEEF), Extended16.Uint(buf, "len"))
}

func TestExtended64RoundTrip(t *testing.T) {
	buf := make([]byte, Extended64.Size())
	Extended64.PutUint(buf, "len", 0x1122334455667788)
	assert.Equal(t, uint64(0x1122334455667788), Extended64.Uint(buf, "len"))
}
