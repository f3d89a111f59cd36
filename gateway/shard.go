// Package gateway implements the WebSocket shard runtime: TCP
// dial, client-side RFC 6455 handshake, the byte-driven receive state
// machine, opcode dispatch, heartbeating, and RESUME/INVALID_SESSION
// recovery. Re-establishing a closed shard is the caller's responsibility;
// this package only drives one connection's lifecycle end to end.
package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corvidkit/corvid/errs"
	"github.com/corvidkit/corvid/event"
	"github.com/corvidkit/corvid/wsframe"
)

// Config parameterizes one shard connection.
type Config struct {
	// Endpoint is a ws://host[:port][/path] (or bare host:port) URL.
	Endpoint string
	Token    string

	ShardID    int
	ShardCount int

	// DialTimeout bounds the TCP connect and, separately, the handshake.
	// Zero means no bound beyond ctx for the connect and none for the
	// handshake.
	DialTimeout time.Duration

	// HeartbeatAckTimeout bounds how long the shard waits for a
	// HEARTBEAT_ACK before declaring the connection stale. Zero means the
	// spec default of 10s.
	HeartbeatAckTimeout time.Duration

	Logger *zap.Logger
}

// Shard drives one gateway connection's full lifecycle:
// CONNECTING -> HANDSHAKING -> OPEN -> CLOSED.
type Shard struct {
	cfg    Config
	logger *zap.Logger
	pusher *event.Pusher
	hb     *heartbeatHandler

	mu    sync.Mutex
	state State
	conn  net.Conn

	decoder *wsframe.Decoder

	sessionID string
	resumeURL string
	seq       int64
	haveSeq   bool

	closeOnce sync.Once
	closed    chan struct{}
}

// NewShard returns a Shard in state CONNECTING, ready for Connect.
func NewShard(cfg Config) *Shard {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Shard{
		cfg:    cfg,
		logger: logger,
		pusher: event.NewPusher(),
		state:  StateConnecting,
		closed: make(chan struct{}),
	}
	s.hb = newHeartbeatHandler(s, s.pusher)
	if cfg.HeartbeatAckTimeout > 0 {
		s.hb.ackTimeout = cfg.HeartbeatAckTimeout
	}
	s.pusher.RegisterListener("connection_stale", func(args ...any) {
		s.logger.Warn("shard connection stale, closing", zap.Int("shard_id", s.cfg.ShardID))
		_ = s.Close()
	})
	return s
}

// Events exposes the shard's internal pub/sub so callers can subscribe to
// DISPATCH event names (e.g. "MESSAGE_CREATE", "READY") and
// "connection_stale".
func (s *Shard) Events() *event.Pusher { return s.pusher }

// State reports the shard's current lifecycle stage.
func (s *Shard) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shard) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Connect dials the shard's endpoint, performs the handshake, and starts
// the receive and heartbeat loops. It sends RESUME instead of IDENTIFY on
// HELLO if the shard already holds a session from a prior connection.
func (s *Shard) Connect(ctx context.Context) error {
	s.setState(StateConnecting)

	endpoint := s.cfg.Endpoint
	s.mu.Lock()
	if s.resumeURL != "" {
		endpoint = s.resumeURL
	}
	s.mu.Unlock()

	conn, err := dial(ctx, endpoint, s.cfg.DialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	if err := tuneSocket(conn); err != nil {
		s.logger.Debug("socket tuning failed, continuing without it", zap.Error(err))
	}

	s.setState(StateHandshaking)
	if s.cfg.DialTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.DialTimeout))
	}
	leftover, err := handshake(conn, endpoint)
	if err != nil {
		conn.Close()
		return err
	}
	_ = conn.SetDeadline(time.Time{})

	s.mu.Lock()
	s.conn = conn
	s.decoder = wsframe.NewDecoder()
	s.mu.Unlock()
	s.setState(StateOpen)

	if len(leftover) > 0 {
		s.handleBytes(leftover)
	}

	go s.recvLoop()
	return nil
}

// Close transitions the shard to CLOSED, stopping the heartbeat loop and
// closing the underlying connection. Idempotent.
func (s *Shard) Close() error {
	s.closeOnce.Do(func() {
		s.hb.stop()
		s.setState(StateClosed)
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		close(s.closed)
	})
	return nil
}

// Done is closed once the shard has transitioned to CLOSED.
func (s *Shard) Done() <-chan struct{} { return s.closed }

func (s *Shard) recvLoop() {
	buf := make([]byte, 4096)
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			s.handleBytes(buf[:n])
		}
		if err != nil {
			if s.State() != StateClosed {
				s.logger.Debug("shard receive loop ended", zap.Error(err))
				_ = s.Close()
			}
			return
		}
	}
}

func (s *Shard) handleBytes(b []byte) {
	frames := s.decoder.Feed(b)
	for _, f := range frames {
		if f.Opcode != wsframe.OpText {
			continue // non-text opcodes are dropped
		}
		s.handleFrame(f.Payload)
	}
}

func (s *Shard) handleFrame(payload []byte) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.logger.Debug("dropping malformed gateway frame", zap.Error(err))
		return
	}
	decoded := envelope.Unmarshal(doc, true)

	opF, _ := decoded["Op"].(float64)
	op := Opcode(int(opF))

	if seqF, ok := decoded["Seq"].(float64); ok {
		s.mu.Lock()
		s.seq = int64(seqF)
		s.haveSeq = true
		s.mu.Unlock()
	}

	switch op {
	case OpHello:
		s.onHello(decoded["Data"])
	case OpHeartbeatAck:
		s.hb.ack()
	case OpDispatch:
		eventName, _ := decoded["EventName"].(string)
		if eventName == "READY" {
			s.onReady(decoded["Data"])
		}
		s.pusher.PushEvent(eventName, decoded["Data"])
	case OpReconnect:
		s.logger.Info("gateway requested reconnect")
		_ = s.Close()
	case OpInvalidSession:
		resumable := decodeInvalidSessionResumable(decoded["Data"])
		if !resumable {
			s.mu.Lock()
			s.sessionID = ""
			s.haveSeq = false
			s.resumeURL = ""
			s.mu.Unlock()
		}
		s.logger.Info("invalid session", zap.Bool("resumable", resumable))
		_ = s.Close()
	}
}

func (s *Shard) onHello(data any) {
	doc, _ := data.(map[string]any)
	decoded := helloData.Unmarshal(doc, true)
	intervalMs, _ := decoded["HeartbeatIntervalMs"].(float64)

	s.mu.Lock()
	sessionID := s.sessionID
	seq := s.seq
	haveSeq := s.haveSeq
	s.mu.Unlock()

	var payload map[string]any
	if sessionID != "" && haveSeq {
		payload = buildResumePayload(s.cfg.Token, sessionID, seq)
	} else {
		payload = buildIdentifyPayload(s.cfg.Token, s.cfg.ShardID, s.cfg.ShardCount)
	}
	if err := s.sendJSON(payload); err != nil {
		s.logger.Warn("failed to send identify/resume", zap.Error(err))
		return
	}
	s.hb.start(time.Duration(intervalMs) * time.Millisecond)
}

func (s *Shard) onReady(data any) {
	doc, _ := data.(map[string]any)
	decoded := readyData.Unmarshal(doc, true)
	sessionID, _ := decoded["SessionID"].(string)
	resumeURL, _ := decoded["ResumeGatewayURL"].(string)

	s.mu.Lock()
	s.sessionID = sessionID
	if resumeURL != "" {
		s.resumeURL = resumeURL
	}
	s.mu.Unlock()
}

func (s *Shard) sendHeartbeat() error {
	s.mu.Lock()
	seq, haveSeq := s.seq, s.haveSeq
	s.mu.Unlock()
	return s.sendJSON(buildHeartbeatPayload(seq, haveSeq))
}

func (s *Shard) sendJSON(v map[string]any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	frame := wsframe.Encode(raw, wsframe.DefaultEncodeOptions())

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: shard not connected", errs.ErrTransport)
	}
	_, err = conn.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	return nil
}

// dial resolves endpoint to a host:path pair and opens a TCP connection,
// honoring cfg.DialTimeout/ctx.
func dial(ctx context.Context, endpoint string, timeout time.Duration) (net.Conn, error) {
	host, _, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", host)
}

func splitEndpoint(endpoint string) (host, path string, err error) {
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", "", err
		}
		host = u.Host
		if !strings.Contains(host, ":") {
			host += ":80"
		}
		path = u.Path
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		if path == "" {
			path = "/"
		}
		return host, path, nil
	}
	if !strings.Contains(endpoint, ":") {
		endpoint += ":80"
	}
	return endpoint, "/", nil
}

// handshake performs the client-side RFC 6455 upgrade over conn: an
// HTTP/1.0 request line, required headers, and strict
// validation of the response status line and Connection/Upgrade headers.
// It returns any bytes read past the terminating "\r\n\r\n", which belong
// to the frame stream and must be fed to the decoder immediately.
func handshake(conn net.Conn, endpoint string) ([]byte, error) {
	host, path, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	keyBytes := make([]byte, 16)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, err
	}
	secKey := base64.StdEncoding.EncodeToString(keyBytes)

	req := fmt.Sprintf(
		"GET %s HTTP/1.0\r\nHost: %s\r\nConnection: Upgrade\r\nUpgrade: websocket\r\nSec-WebSocket-Key: %s\r\nSec-WebSocket-Version: 13\r\n\r\n",
		path, host, secKey,
	)
	if _, err := conn.Write([]byte(req)); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}

	raw, leftover, err := readUntilHeaderEnd(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}

	statusLine, headerLines, err := splitResponseHeaders(raw)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return nil, &errs.BadUpgradeError{Field: "status line", Expected: "HTTP/1.1 101 Switching Protocols", Got: statusLine}
	}
	if parts[1] != "101" {
		return nil, &errs.BadUpgradeError{Field: "status code", Expected: "101", Got: parts[1]}
	}

	headers := parseHeaderLines(headerLines)
	if v := headers["connection"]; !strings.EqualFold(v, "upgrade") {
		return nil, &errs.BadUpgradeError{Field: "connection", Expected: "upgrade", Got: v}
	}
	if v := headers["upgrade"]; !strings.EqualFold(v, "websocket") {
		return nil, &errs.BadUpgradeError{Field: "upgrade", Expected: "websocket", Got: v}
	}

	return leftover, nil
}

// readUntilHeaderEnd reads from conn until "\r\n\r\n" is seen, returning the
// header bytes (exclusive of the terminator) and any bytes read past it.
func readUntilHeaderEnd(conn net.Conn) (header, leftover []byte, err error) {
	var acc bytes.Buffer
	tmp := make([]byte, 512)
	for {
		if idx := bytes.Index(acc.Bytes(), []byte("\r\n\r\n")); idx >= 0 {
			all := acc.Bytes()
			return append([]byte(nil), all[:idx]...), append([]byte(nil), all[idx+4:]...), nil
		}
		n, rerr := conn.Read(tmp)
		if n > 0 {
			acc.Write(tmp[:n])
		}
		if rerr != nil {
			return nil, nil, rerr
		}
	}
}

func splitResponseHeaders(raw []byte) (statusLine string, headerLines []string, err error) {
	lines := strings.Split(string(raw), "\r\n")
	if len(lines) == 0 {
		return "", nil, fmt.Errorf("empty handshake response")
	}
	return lines[0], lines[1:], nil
}

func parseHeaderLines(lines []string) map[string]string {
	out := make(map[string]string, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		val := strings.TrimSpace(line[idx+1:])
		out[key] = val
	}
	return out
}

// HeartbeatStats reports sent/acked heartbeat counters (P6).
func (s *Shard) HeartbeatStats() (sent, acked int64) {
	return s.hb.stats()
}

// Latency is the most recent heartbeat round-trip time.
func (s *Shard) Latency() time.Duration {
	return s.hb.latency()
}
