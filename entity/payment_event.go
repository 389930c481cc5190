package entity

import "time"

// PaymentEvent is published when a checkout attempt reaches a terminal state.
type PaymentEvent struct {
	ReferenceId  string      `json:"reference_id"`
	Status       OrderStatus `json:"status"`
	Amount       float64     `json:"amount"`
	ResponseCode string      `json:"response_code,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	Time         time.Time   `json:"time"`
}

// LogMessage is a log record persisted to the database.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
}

func (l *LogMessage) DataType() string {
	return "log_message"
}
