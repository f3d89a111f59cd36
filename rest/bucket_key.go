package rest

import "fmt"

// bucketKey implements the canonical bucket-key formula exactly:
// "{METHOD}-{guild_id?}-{channel_id?}-{webhook_id?}", with a missing path
// parameter stringified as the literal token "null" (matching
// original_source's `path_params.get("guild_id")` defaulting to Python's
// None, stringified the same way by str.format). The route's own path
// template is deliberately excluded, so two distinct routes sharing the
// same guild/channel/webhook id collide into one bucket; this is a known
// simplification carried from the source, not a bug (see DESIGN.md).
func bucketKey(method string, params map[string]string) string {
	return fmt.Sprintf("%s-%s-%s-%s", method, paramOrNull(params, "guild_id"), paramOrNull(params, "channel_id"), paramOrNull(params, "webhook_id"))
}

func paramOrNull(params map[string]string, name string) string {
	if v, ok := params[name]; ok && v != "" {
		return v
	}
	return "null"
}
