package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Reasons carried by TransactionsChangedMessage.
const (
	ReasonCreated  = "created"
	ReasonImported = "imported"
	ReasonDeleted  = "deleted"
)

// TransactionsChangedMessage announces that a user's transactions changed.
// It carries no transaction data; consumers reload what they need.
type TransactionsChangedMessage struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionsChangedMessage(userID int64, reason string, count int) *TransactionsChangedMessage {
	return &TransactionsChangedMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Reason:    reason,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// DigestMessage carries the forecast and recommendations computed for a user.
type DigestMessage struct {
	ID              string                `json:"id"`
	UserID          int64                 `json:"user_id"`
	Forecast        core.Forecast         `json:"forecast"`
	Recommendations []core.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

func NewDigestMessage(userID int64, res core.AnalyticsResult) *DigestMessage {
	return &DigestMessage{
		ID:              uuid.NewString(),
		UserID:          userID,
		Forecast:        res.Forecast,
		Recommendations: res.Recommendations,
		GeneratedAt:     time.Now().UTC(),
	}
}

func (m *TransactionsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *DigestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes a message body.
func FromJSON[T any](data []byte) (*T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
