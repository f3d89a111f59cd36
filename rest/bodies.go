package rest

import "github.com/corvidkit/corvid/field"

// messageCreateBody mirrors original_source's MessageCreateRequest:
// content, nonce, and tts, all optional and omitted from the JSON body
// when unset.
var messageCreateBody = field.Set{
	{Name: "Content", Key: "content", OmitEmpty: true},
	{Name: "Nonce", Key: "nonce", OmitEmpty: true},
	{Name: "TTS", Key: "tts", Default: false, OmitEmpty: true},
}

// guildMemberModifyBody covers the subset of guild member fields
// original_source's GuildMember.edit exposes: nick and roles.
var guildMemberModifyBody = field.Set{
	{Name: "Nick", Key: "nick", OmitEmpty: true},
	{Name: "Roles", Key: "roles", OmitEmpty: true},
}

// guildModifyBody covers Guild.edit's name/region fields.
var guildModifyBody = field.Set{
	{Name: "Name", Key: "name", OmitEmpty: true},
	{Name: "Region", Key: "region", OmitEmpty: true},
}

// banBody covers Member.ban's optional prune window.
var banBody = field.Set{
	{Name: "DeleteMessageDays", Key: "delete_message_days", Default: 0, OmitEmpty: true},
}

// roleCreateBody covers RoleManager.create's name/permissions/color fields.
var roleCreateBody = field.Set{
	{Name: "Name", Key: "name", OmitEmpty: true},
	{Name: "Permissions", Key: "permissions", OmitEmpty: true},
	{Name: "Color", Key: "color", Default: 0, OmitEmpty: true},
}
