package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketKeyFormula(t *testing.T) {
	assert.Equal(t, "GET-123-null-null", bucketKey("GET", map[string]string{"guild_id": "123"}))
	assert.Equal(t, "POST-null-456-null", bucketKey("POST", map[string]string{"channel_id": "456"}))
	assert.Equal(t, "DELETE-null-null-789", bucketKey("DELETE", map[string]string{"webhook_id": "789"}))
	assert.Equal(t, "GET-null-null-null", bucketKey("GET", nil))
}

func TestBucketKeyCollidesAcrossRoutesSharingIDs(t *testing.T) {
	// Documented simplification: the route template is excluded from the
	// key, so two distinct GET routes under the same channel collide.
	a := bucketKey(GetChannel.Method, map[string]string{"channel_id": "1"})
	b := bucketKey(GetChannelMessage.Method, map[string]string{"channel_id": "1", "message_id": "2"})
	assert.Equal(t, a, b)
}

func TestSubstitutePath(t *testing.T) {
	path, err := substitutePath("channels/{channel_id}/messages/{message_id}", map[string]string{
		"channel_id": "1", "message_id": "2",
	})
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("channels/1/messages/2", path)

	_, err = substitutePath("channels/{channel_id}", nil)
	assert.Error(err)
}
