package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/corvidkit/corvid/field"
)

// throttledBody mirrors the 429 response schema: {"global": bool,
// "retry_after": number_ms, "message": string}, decoded through the field
// descriptor runtime rather than a bespoke struct tag, matching how the
// platform's other JSON envelopes (gateway payload, REST bodies) are
// decoded.
var throttledBody = field.Set{
	{Name: "Global", Key: "global", Default: false},
	{Name: "RetryAfterMs", Key: "retry_after", Default: float64(0)},
	{Name: "Message", Key: "message", Default: ""},
}

// parseThrottled reads and decodes a 429 response body. A body that fails
// to parse (or is empty) yields retry_after=0: a 429 that lacks a
// parseable body is treated as retry_after = 0.
func parseThrottled(r io.Reader) (retryAfterMs int64, global bool) {
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return 0, false
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, false
	}
	out := throttledBody.Unmarshal(doc, true)
	ms, _ := out["RetryAfterMs"].(float64)
	g, _ := out["Global"].(bool)
	return int64(ms), g
}

// parseRateHeaders extracts X-Ratelimit-{Limit,Remaining,Reset} from a
// non-429 response.
func parseRateHeaders(h http.Header) (limit, remaining int, resetAt time.Time, haveLimit, haveRemaining, haveReset bool) {
	if v := h.Get("X-Ratelimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit, haveLimit = n, true
		}
	}
	if v := h.Get("X-Ratelimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining, haveRemaining = n, true
		}
	}
	if v := h.Get("X-Ratelimit-Reset"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			sec := int64(f)
			nsec := int64((f - float64(sec)) * float64(time.Second))
			resetAt, haveReset = time.Unix(sec, nsec), true
		}
	}
	return
}
