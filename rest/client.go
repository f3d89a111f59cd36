package rest

import (
	"context"
	"net/http"
)

// The methods below are thin, typed wrappers over Dispatcher.Do, one per
// endpoint declared in endpoints.go, grounded on original_source's
// RestSession method set (lib/rest.py) and GuildMember/Role/Guild routes
// (lib/guild.py).

func (d *Dispatcher) GetChannel(ctx context.Context, channelID string) (*http.Response, error) {
	return d.Do(ctx, GetChannel, map[string]string{"channel_id": channelID}, nil, nil)
}

func (d *Dispatcher) DeleteChannel(ctx context.Context, channelID string) (*http.Response, error) {
	return d.Do(ctx, DeleteChannel, map[string]string{"channel_id": channelID}, nil, nil)
}

func (d *Dispatcher) GetChannelMessage(ctx context.Context, channelID, messageID string) (*http.Response, error) {
	return d.Do(ctx, GetChannelMessage, map[string]string{"channel_id": channelID, "message_id": messageID}, nil, nil)
}

func (d *Dispatcher) CreateChannelMessage(ctx context.Context, channelID string, content, nonce string, tts bool) (*http.Response, error) {
	values := map[string]any{"Content": content, "Nonce": nonce, "TTS": tts}
	return d.Do(ctx, CreateChannelMessage, map[string]string{"channel_id": channelID}, messageCreateBody, values)
}

func (d *Dispatcher) DeleteChannelMessage(ctx context.Context, channelID, messageID string) (*http.Response, error) {
	return d.Do(ctx, DeleteChannelMessage, map[string]string{"channel_id": channelID, "message_id": messageID}, nil, nil)
}

func (d *Dispatcher) CreateWebhookMessage(ctx context.Context, webhookID, webhookToken, content string) (*http.Response, error) {
	values := map[string]any{"Content": content}
	return d.Do(ctx, CreateWebhookMessage, map[string]string{"webhook_id": webhookID, "webhook_token": webhookToken}, messageCreateBody, values)
}

func (d *Dispatcher) EditWebhookMessage(ctx context.Context, webhookID, webhookToken, messageID, content string) (*http.Response, error) {
	values := map[string]any{"Content": content}
	params := map[string]string{"webhook_id": webhookID, "webhook_token": webhookToken, "message_id": messageID}
	return d.Do(ctx, EditWebhookMessage, params, messageCreateBody, values)
}

func (d *Dispatcher) DeleteWebhookMessage(ctx context.Context, webhookID, webhookToken, messageID string) (*http.Response, error) {
	params := map[string]string{"webhook_id": webhookID, "webhook_token": webhookToken, "message_id": messageID}
	return d.Do(ctx, DeleteWebhookMessage, params, nil, nil)
}

func (d *Dispatcher) GetGuildMember(ctx context.Context, guildID, userID string) (*http.Response, error) {
	return d.Do(ctx, GetGuildMember, map[string]string{"guild_id": guildID, "user_id": userID}, nil, nil)
}

func (d *Dispatcher) ModifyGuildMember(ctx context.Context, guildID, userID, nick string, roles []string) (*http.Response, error) {
	values := map[string]any{"Nick": nick, "Roles": roles}
	return d.Do(ctx, ModifyGuildMember, map[string]string{"guild_id": guildID, "user_id": userID}, guildMemberModifyBody, values)
}

// BanGuildMember optionally prunes deleteMessageDays (0-7) worth of the
// member's recent messages, matching original_source's Member.ban.
func (d *Dispatcher) BanGuildMember(ctx context.Context, guildID, userID string, deleteMessageDays int) (*http.Response, error) {
	params := map[string]string{"guild_id": guildID, "user_id": userID}
	values := map[string]any{"DeleteMessageDays": deleteMessageDays}
	return d.Do(ctx, BanGuildMember, params, banBody, values)
}

func (d *Dispatcher) UnbanGuildMember(ctx context.Context, guildID, userID string) (*http.Response, error) {
	return d.Do(ctx, UnbanGuildMember, map[string]string{"guild_id": guildID, "user_id": userID}, nil, nil)
}

func (d *Dispatcher) GetGuildRoles(ctx context.Context, guildID string) (*http.Response, error) {
	return d.Do(ctx, GetGuildRoles, map[string]string{"guild_id": guildID}, nil, nil)
}

func (d *Dispatcher) CreateGuildRole(ctx context.Context, guildID, name string, permissions string, color int) (*http.Response, error) {
	values := map[string]any{"Name": name, "Permissions": permissions, "Color": color}
	return d.Do(ctx, CreateGuildRole, map[string]string{"guild_id": guildID}, roleCreateBody, values)
}

func (d *Dispatcher) DeleteGuildRole(ctx context.Context, guildID, roleID string) (*http.Response, error) {
	return d.Do(ctx, DeleteGuildRole, map[string]string{"guild_id": guildID, "role_id": roleID}, nil, nil)
}

func (d *Dispatcher) GetGuild(ctx context.Context, guildID string) (*http.Response, error) {
	return d.Do(ctx, GetGuild, map[string]string{"guild_id": guildID}, nil, nil)
}

func (d *Dispatcher) ModifyGuild(ctx context.Context, guildID, name, region string) (*http.Response, error) {
	values := map[string]any{"Name": name, "Region": region}
	return d.Do(ctx, ModifyGuild, map[string]string{"guild_id": guildID}, guildModifyBody, values)
}
