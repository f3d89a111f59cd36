package gateway

import (
	"github.com/corvidkit/corvid/field"
)

// envelope mirrors the gateway frame: {op, s, t, d}, decoded
// through the field descriptor runtime rather than a bespoke struct, the
// same way ratelimit decodes the 429 body.
var envelope = field.Set{
	{Name: "Op", Key: "op", Default: float64(-1)},
	{Name: "Seq", Key: "s", Default: nil, OmitEmpty: true},
	{Name: "EventName", Key: "t", Default: "", OmitEmpty: true},
	{Name: "Data", Key: "d", Default: nil, OmitEmpty: true},
}

// helloData decodes a HELLO dispatch's inner "d" object.
var helloData = field.Set{
	{Name: "HeartbeatIntervalMs", Key: "heartbeat_interval", Default: float64(0)},
}

// readyData decodes a READY dispatch's inner "d" object, enough of it to
// drive RESUME: session_id and the gateway URL to resume against.
var readyData = field.Set{
	{Name: "SessionID", Key: "session_id", Default: ""},
	{Name: "ResumeGatewayURL", Key: "resume_gateway_url", Default: "", OmitEmpty: true},
}

// decodeInvalidSessionResumable decodes INVALID_SESSION's inner "d": a bare bool,
// true when the session is resumable.
func decodeInvalidSessionResumable(d any) bool {
	b, _ := d.(bool)
	return b
}

// identifyProperties is the nested "properties" object of an IDENTIFY
// payload, matching original_source's "$os"/"$browser"/"$device" triplet.
type identifyProperties struct {
	OS      string `json:"$os"`
	Browser string `json:"$browser"`
	Device  string `json:"$device"`
}

func buildIdentifyPayload(token string, shardID, shardCount int) map[string]any {
	d := map[string]any{
		"token": token,
		"properties": identifyProperties{
			OS:      "linux",
			Browser: "corvid",
			Device:  "corvid",
		},
	}
	if shardCount > 1 {
		d["shard"] = []int{shardID, shardCount}
	}
	return map[string]any{"op": int(OpIdentify), "d": d}
}

func buildResumePayload(token, sessionID string, seq int64) map[string]any {
	return map[string]any{
		"op": int(OpResume),
		"d": map[string]any{
			"token":      token,
			"session_id": sessionID,
			"seq":        seq,
		},
	}
}

func buildHeartbeatPayload(seq int64, haveSeq bool) map[string]any {
	var d any
	if haveSeq {
		d = seq
	}
	return map[string]any{"op": int(OpHeartbeat), "d": d}
}
