package models

import "time"

// Signal сообщение администратора в комнате сигналов.
type Signal struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	SenderUID  string    `json:"sender_uid"`
	SenderRole string    `json:"sender_role"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Типы событий, рассылаемых подписчикам комнаты.
const (
	EventSignalCreated = "signal.created"
	EventSignalDeleted = "signal.deleted"
)

// SignalEvent событие, отправляемое в веб-сокет.
type SignalEvent struct {
	Type   string  `json:"type"`
	Signal *Signal `json:"signal"`
}

// SignalNotification сообщение в очередь уведомлений о новом сигнале.
type SignalNotification struct {
	SignalID  int64     `json:"signal_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Sender автор запроса, изменяющего комнату сигналов.
type Sender struct {
	UID  string
	Role string
}
