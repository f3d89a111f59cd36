package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidkit/corvid/errs"
	"github.com/corvidkit/corvid/wsframe"
)

func listen(t *testing.T) (net.Listener, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln, ln.Addr().String()
}

func readRequestLine(t *testing.T, conn net.Conn) {
	t.Helper()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			return
		}
	}
}

// TestHandshakeRejection verifies that a server answering with
// "200 OK" instead of "101 Switching Protocols" must fail with
// BadUpgradeError("status code", "101", "200").
func TestHandshakeRejection(t *testing.T) {
	ln, addr := listen(t)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readRequestLine(t, conn)
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	}()

	shard := NewShard(Config{Endpoint: "ws://" + addr, Token: "tok"})
	err := shard.Connect(context.Background())
	require.Error(t, err)

	var badUpgrade *errs.BadUpgradeError
	require.ErrorAs(t, err, &badUpgrade)
	assert.Equal(t, "status code", badUpgrade.Field)
	assert.Equal(t, "101", badUpgrade.Expected)
	assert.Equal(t, "200", badUpgrade.Got)
}

func writeServerFrame(t *testing.T, conn net.Conn, v map[string]any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	frame := wsframe.Encode(raw, wsframe.EncodeOptions{Opcode: wsframe.OpText, Fin: true})
	_, err = conn.Write(frame)
	require.NoError(t, err)
}

func acceptAndHandshake(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	conn, err := ln.Accept()
	require.NoError(t, err)
	readRequestLine(t, conn)
	_, err = conn.Write([]byte("HTTP/1.1 101 Switching Protocols\r\nConnection: Upgrade\r\nUpgrade: websocket\r\n\r\n"))
	require.NoError(t, err)
	return conn
}

// TestHelloTriggersIdentifyAndHeartbeat exercises the HELLO opcode handler:
// on HELLO the shard sends IDENTIFY and begins heartbeating, and a
// HEARTBEAT_ACK is reflected in HeartbeatStats.
func TestHelloTriggersIdentifyAndHeartbeat(t *testing.T) {
	ln, addr := listen(t)
	defer ln.Close()

	serverDone := make(chan struct{})
	var gotIdentify, gotHeartbeat bool

	go func() {
		defer close(serverDone)
		conn := acceptAndHandshake(t, ln)
		defer conn.Close()

		writeServerFrame(t, conn, map[string]any{"op": int(OpHello), "d": map[string]any{"heartbeat_interval": 30}})

		dec := wsframe.NewDecoder()
		buf := make([]byte, 4096)
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for !(gotIdentify && gotHeartbeat) {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			for _, f := range dec.Feed(buf[:n]) {
				var doc map[string]any
				if json.Unmarshal(f.Payload, &doc) != nil {
					continue
				}
				op, _ := doc["op"].(float64)
				switch Opcode(int(op)) {
				case OpIdentify:
					gotIdentify = true
				case OpHeartbeat:
					gotHeartbeat = true
					writeServerFrame(t, conn, map[string]any{"op": int(OpHeartbeatAck)})
				}
			}
		}
	}()

	shard := NewShard(Config{Endpoint: "ws://" + addr, Token: "tok", HeartbeatAckTimeout: 2 * time.Second})
	require.NoError(t, shard.Connect(context.Background()))
	defer shard.Close()

	select {
	case <-serverDone:
	case <-time.After(3 * time.Second):
		t.Fatal("server side never completed")
	}

	assert.True(t, gotIdentify)
	assert.True(t, gotHeartbeat)

	sent, acked := shard.HeartbeatStats()
	assert.GreaterOrEqual(t, sent, int64(1))
	assert.LessOrEqual(t, acked, sent) // P6: acked never exceeds sent
}

// TestHeartbeatTimeoutMarksStale verifies that a HELLO with no
// subsequent HEARTBEAT_ACK causes the shard to emit "connection_stale" and
// close, within its configured ack timeout.
func TestHeartbeatTimeoutMarksStale(t *testing.T) {
	ln, addr := listen(t)
	defer ln.Close()

	go func() {
		conn := acceptAndHandshake(t, ln)
		defer conn.Close()
		writeServerFrame(t, conn, map[string]any{"op": int(OpHello), "d": map[string]any{"heartbeat_interval": 30000}})
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
			// Never reply with HEARTBEAT_ACK.
		}
	}()

	shard := NewShard(Config{Endpoint: "ws://" + addr, Token: "tok", HeartbeatAckTimeout: 200 * time.Millisecond})
	require.NoError(t, shard.Connect(context.Background()))

	select {
	case <-shard.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shard never closed after a missed heartbeat ack")
	}
	assert.Equal(t, StateClosed, shard.State())
}
