package bus

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	EventCommonStart        EventType = "common_start"
	EventRegistrationStart  EventType = "registration_start"
	EventRegistrationFinish EventType = "registration_finish"
	EventAuth               EventType = "auth"
	EventNotification       EventType = "notification"
	EventReview             EventType = "review"
	EventReviewResponse     EventType = "review_response"
)

// Event событие шины, сериализуется в JSON с полем event_type
type Event interface {
	EventType() EventType
}

// CommonStartEvent /start без токена
type CommonStartEvent struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// RegistrationStartEvent /start с токеном регистрации
type RegistrationStartEvent struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// RegistrationFinishEvent ответ backend на попытку привязки
type RegistrationFinishEvent struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// AuthEvent код подтверждения входа
type AuthEvent struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// NotificationEvent произвольный текст в чат
type NotificationEvent struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// ReviewEvent запрос модерации отзыва репетитором
type ReviewEvent struct {
	UserID   int64  `json:"user_id"`
	ReviewID int64  `json:"review_id"`
	Message  string `json:"message"`
}

// ReviewResponseEvent решение репетитора по отзыву
type ReviewResponseEvent struct {
	UserID   int64  `json:"user_id"` // чат, из которого нажата кнопка
	ReviewID int64  `json:"review_id"`
	Action   string `json:"action"`
}

func (CommonStartEvent) EventType() EventType        { return EventCommonStart }
func (RegistrationStartEvent) EventType() EventType  { return EventRegistrationStart }
func (RegistrationFinishEvent) EventType() EventType { return EventRegistrationFinish }
func (AuthEvent) EventType() EventType               { return EventAuth }
func (NotificationEvent) EventType() EventType       { return EventNotification }
func (ReviewEvent) EventType() EventType             { return EventReview }
func (ReviewResponseEvent) EventType() EventType     { return EventReviewResponse }

// Encode сериализует событие в конверт {"event_type": ..., ...поля}
func Encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal %s fields: %w", e.EventType(), err)
	}

	eventType, _ := json.Marshal(e.EventType())
	fields["event_type"] = eventType

	return json.Marshal(fields)
}

// Message событие, прочитанное из потока
type Message struct {
	ID      string
	Type    EventType
	Payload []byte
}

// Decode разбирает поля события в v
func (m Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return nil
}

func decodeMessage(id string, payload []byte) (Message, error) {
	var envelope struct {
		EventType EventType `json:"event_type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Message{ID: id, Payload: payload}, fmt.Errorf("decode envelope %s: %w", id, err)
	}
	return Message{ID: id, Type: envelope.EventType, Payload: payload}, nil
}
