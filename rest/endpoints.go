package rest

import "net/http"

// Endpoint declares one REST route: its HTTP method and a path template with
// "{name}" placeholders. The bucket key is computed from the path
// parameters passed to Dispatcher.Do (guild_id, channel_id, webhook_id), not
// from a list held by the Endpoint.
type Endpoint struct {
	Method       string
	PathTemplate string
}

// The endpoint table below covers enough path-parameter shapes to exercise
// every branch of the bucket-key formula: channel-only, channel+message,
// webhook-only, guild-only, and guild+member/role, grounded on
// original_source's lib/rest.py RestSession methods and lib/guild.py's
// member/role/ban routes.
var (
	GetChannel    = Endpoint{http.MethodGet, "channels/{channel_id}"}
	DeleteChannel = Endpoint{http.MethodDelete, "channels/{channel_id}"}

	GetChannelMessage    = Endpoint{http.MethodGet, "channels/{channel_id}/messages/{message_id}"}
	CreateChannelMessage = Endpoint{http.MethodPost, "channels/{channel_id}/messages"}
	DeleteChannelMessage = Endpoint{http.MethodDelete, "channels/{channel_id}/messages/{message_id}"}

	CreateWebhookMessage = Endpoint{http.MethodPost, "webhooks/{webhook_id}/{webhook_token}"}
	EditWebhookMessage   = Endpoint{http.MethodPatch, "webhooks/{webhook_id}/{webhook_token}/messages/{message_id}"}
	DeleteWebhookMessage = Endpoint{http.MethodDelete, "webhooks/{webhook_id}/{webhook_token}/messages/{message_id}"}

	GetGuildMember    = Endpoint{http.MethodGet, "guilds/{guild_id}/members/{user_id}"}
	ModifyGuildMember = Endpoint{http.MethodPatch, "guilds/{guild_id}/members/{user_id}"}
	BanGuildMember    = Endpoint{http.MethodPut, "guilds/{guild_id}/bans/{user_id}"}
	UnbanGuildMember  = Endpoint{http.MethodDelete, "guilds/{guild_id}/bans/{user_id}"}

	GetGuildRoles  = Endpoint{http.MethodGet, "guilds/{guild_id}/roles"}
	CreateGuildRole = Endpoint{http.MethodPost, "guilds/{guild_id}/roles"}
	DeleteGuildRole = Endpoint{http.MethodDelete, "guilds/{guild_id}/roles/{role_id}"}

	GetGuild    = Endpoint{http.MethodGet, "guilds/{guild_id}"}
	ModifyGuild = Endpoint{http.MethodPatch, "guilds/{guild_id}"}
)
