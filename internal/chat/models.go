package chat

import (
	"time"

	"github.com/google/uuid"

	"pulse/internal/database"
)

// Message is immutable once created except for the read flag.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

func convertDBMessageToMessage(dbMsg *database.Message) *Message {
	if dbMsg == nil {
		return nil
	}
	return &Message{
		ID:         dbMsg.ID,
		SenderID:   dbMsg.SenderID,
		ReceiverID: dbMsg.ReceiverID,
		Content:    dbMsg.Content,
		Read:       dbMsg.Read,
		CreatedAt:  dbMsg.CreatedAt,
	}
}

func convertMessageToDBMessage(msg *Message) *database.Message {
	if msg == nil {
		return nil
	}
	return &database.Message{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
}
