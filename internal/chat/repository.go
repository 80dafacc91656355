package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pulse/infrastructure"
	"pulse/internal/database"
)

type Repository interface {
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)
	// MarkRead flips the read flag. The bool reports whether this call
	// performed the false -> true transition; a repeat call returns the
	// stored record with false so no duplicate receipt is emitted.
	MarkRead(ctx context.Context, id uuid.UUID) (*Message, bool, error)
	// Conversation returns every message exchanged between the two users,
	// in both directions, ascending by creation time.
	Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMessage(ctx context.Context, msg *Message) (*Message, error) {
	dbMsg := convertMessageToDBMessage(msg)
	if dbMsg.ID == uuid.Nil {
		dbMsg.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(dbMsg).Error; err != nil {
		return nil, err
	}
	return convertDBMessageToMessage(dbMsg), nil
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID) (*Message, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&database.Message{}).
		Where("id = ? AND read = false", id).
		Update("read", true)
	if result.Error != nil {
		return nil, false, result.Error
	}

	var dbMsg database.Message
	err := r.db.WithContext(ctx).First(&dbMsg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, infrastructure.ErrMessageNotFound
		}
		return nil, false, err
	}

	return convertDBMessageToMessage(&dbMsg), result.RowsAffected > 0, nil
}

func (r *repository) Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	var dbMsgs []*database.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&dbMsgs).Error
	if err != nil {
		return nil, err
	}

	msgs := make([]*Message, len(dbMsgs))
	for i, dbMsg := range dbMsgs {
		msgs[i] = convertDBMessageToMessage(dbMsg)
	}
	return msgs, nil
}
