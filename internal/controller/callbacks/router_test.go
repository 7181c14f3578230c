package callbacks

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	events []bus.Event
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, stream string, e bus.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fakeAPI struct {
	answers []*bot.AnswerCallbackQueryParams
	edits   []*bot.EditMessageReplyMarkupParams
}

func (f *fakeAPI) AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.answers = append(f.answers, params)
	return true, nil
}

func (f *fakeAPI) EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error) {
	f.edits = append(f.edits, params)
	return &models.Message{}, nil
}

func callback(data string) *models.CallbackQuery {
	return &models.CallbackQuery{
		ID:   "cb-1",
		From: models.User{ID: 200},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 9, Chat: models.Chat{ID: 200}},
		},
	}
}

func TestRoute_ReviewPublish(t *testing.T) {
	pub := &fakePublisher{}
	api := &fakeAPI{}
	h := NewHandler(pub, "to_backend", zap.NewNop())

	h.Route(context.Background(), api, callback("review_publish:5"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, bus.ReviewResponseEvent{UserID: 200, ReviewID: 5, Action: "publish"}, pub.events[0])
	require.Len(t, api.answers, 1)
	assert.False(t, api.answers[0].ShowAlert)
	require.Len(t, api.edits, 1)
	assert.Equal(t, 9, api.edits[0].MessageID)
}

func TestRoute_ReviewReject(t *testing.T) {
	pub := &fakePublisher{}
	api := &fakeAPI{}
	h := NewHandler(pub, "to_backend", zap.NewNop())

	h.Route(context.Background(), api, callback("review_reject:7"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "reject", pub.events[0].(bus.ReviewResponseEvent).Action)
}

func TestRoute_BadData(t *testing.T) {
	pub := &fakePublisher{}
	api := &fakeAPI{}
	h := NewHandler(pub, "to_backend", zap.NewNop())

	h.Route(context.Background(), api, callback("review_publish:abc"))

	assert.Empty(t, pub.events)
	require.Len(t, api.answers, 1)
	assert.True(t, api.answers[0].ShowAlert)
	assert.Empty(t, api.edits)
}

func TestRoute_PublishFailureKeepsKeyboard(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}
	api := &fakeAPI{}
	h := NewHandler(pub, "to_backend", zap.NewNop())

	h.Route(context.Background(), api, callback("review_publish:5"))

	require.Len(t, api.answers, 1)
	assert.True(t, api.answers[0].ShowAlert)
	assert.Empty(t, api.edits)
}

func TestRoute_Unknown(t *testing.T) {
	api := &fakeAPI{}
	h := NewHandler(&fakePublisher{}, "to_backend", zap.NewNop())

	h.Route(context.Background(), api, callback("noop"))

	require.Len(t, api.answers, 1)
	assert.Equal(t, "❌ Неизвестная команда", api.answers[0].Text)
}
