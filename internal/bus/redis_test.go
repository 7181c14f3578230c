package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStreams(t *testing.T, maxLen int64) (*Streams, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStreams(client, maxLen, 10*time.Millisecond), client
}

func TestStreams_PublishPoll(t *testing.T) {
	s, _ := newTestStreams(t, 500)
	ctx := context.Background()

	cursor, err := s.Latest(ctx, "from_backend")
	require.NoError(t, err)
	assert.Equal(t, "0-0", cursor)

	require.NoError(t, s.Publish(ctx, "from_backend", NotificationEvent{UserID: 42, Message: "Привет"}))
	require.NoError(t, s.Publish(ctx, "from_backend", AuthEvent{UserID: 42, Code: "123456"}))

	msgs, next, err := s.Poll(ctx, "from_backend", cursor)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, msgs[1].ID, next)

	assert.Equal(t, EventNotification, msgs[0].Type)
	var n NotificationEvent
	require.NoError(t, msgs[0].Decode(&n))
	assert.Equal(t, NotificationEvent{UserID: 42, Message: "Привет"}, n)

	assert.Equal(t, EventAuth, msgs[1].Type)
	var a AuthEvent
	require.NoError(t, msgs[1].Decode(&a))
	assert.Equal(t, "123456", a.Code)

	latest, err := s.Latest(ctx, "from_backend")
	require.NoError(t, err)
	assert.Equal(t, next, latest)
}

func TestStreams_PollFromLatestSkipsBacklog(t *testing.T) {
	s, _ := newTestStreams(t, 500)
	ctx := context.Background()

	require.NoError(t, s.Publish(ctx, "to_backend", CommonStartEvent{UserID: 1, Username: "old"}))

	cursor, err := s.Latest(ctx, "to_backend")
	require.NoError(t, err)

	require.NoError(t, s.Publish(ctx, "to_backend", CommonStartEvent{UserID: 2, Username: "new"}))

	msgs, _, err := s.Poll(ctx, "to_backend", cursor)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var e CommonStartEvent
	require.NoError(t, msgs[0].Decode(&e))
	assert.Equal(t, "new", e.Username)
}

func TestStreams_MaxLen(t *testing.T) {
	s, client := newTestStreams(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Publish(ctx, "from_backend", NotificationEvent{UserID: int64(i)}))
	}

	length, err := client.XLen(ctx, "from_backend").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)
}

func TestStreams_MalformedPayloadKeepsCursor(t *testing.T) {
	s, client := newTestStreams(t, 500)
	ctx := context.Background()

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "to_backend",
		Values: map[string]interface{}{"payload": "not json"},
	}).Result()
	require.NoError(t, err)

	msgs, next, err := s.Poll(ctx, "to_backend", "0-0")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, EventType(""), msgs[0].Type)
	assert.Equal(t, id, next)
}

func TestEncode_EnvelopeCarriesEventType(t *testing.T) {
	payload, err := Encode(ReviewResponseEvent{UserID: 5, ReviewID: 9, Action: "publish"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"event_type":"review_response","user_id":5,"review_id":9,"action":"publish"}`, string(payload))
}
