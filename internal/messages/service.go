package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luminalab/lumina/backend/internal/ident"
	"gorm.io/gorm"
)

// ErrSelfMessage indicates a direct message addressed to the sender.
var ErrSelfMessage = errors.New("messages: cannot message yourself")

// ServiceConfig describes the dependencies required by the messaging service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
}

// Service manages conversations and direct messages.
type Service struct {
	db  *gorm.DB
	now func() time.Time
	ids ident.Provider
}

// NewService constructs the messaging service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("messages: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = ident.NewUUIDProvider()
	}
	return &Service{db: cfg.Database, now: clock, ids: ids}, nil
}

// Send appends a message to the conversation between sender and receiver,
// lazily creating the conversation on first contact.
func (s *Service) Send(ctx context.Context, senderID, receiverID, body string) (Message, error) {
	if senderID == receiverID {
		return Message{}, ErrSelfMessage
	}

	var message Message
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conversation, err := s.findOrCreateConversation(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		id, err := s.ids.NewID()
		if err != nil {
			return err
		}
		message = Message{
			ID:             id,
			ConversationID: conversation.ID,
			SenderID:       senderID,
			ReceiverID:     receiverID,
			Body:           body,
		}
		return tx.Create(&message).Error
	})
	if txErr != nil {
		return Message{}, txErr
	}
	return message, nil
}

// Between lists the messages between the two users in send order. No
// conversation yet means an empty list, not an error.
func (s *Service) Between(ctx context.Context, userA, userB string) ([]Message, error) {
	low, top := normalizePair(userA, userB)

	var conversation Conversation
	err := s.db.WithContext(ctx).
		Where("participant_low = ? AND participant_top = ?", low, top).
		First(&conversation).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	history := []Message{}
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&history).
		Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// ConversationCount reports how many conversations exist for the pair,
// used by tests asserting the lazily-created conversation is reused.
func (s *Service) ConversationCount(ctx context.Context, userA, userB string) (int64, error) {
	low, top := normalizePair(userA, userB)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Conversation{}).
		Where("participant_low = ? AND participant_top = ?", low, top).
		Count(&count).
		Error
	return count, err
}

func (s *Service) findOrCreateConversation(tx *gorm.DB, senderID, receiverID string) (Conversation, error) {
	low, top := normalizePair(senderID, receiverID)

	var conversation Conversation
	err := tx.Where("participant_low = ? AND participant_top = ?", low, top).First(&conversation).Error
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Conversation{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Conversation{}, err
	}
	conversation = Conversation{
		ID:             id,
		ParticipantLow: low,
		ParticipantTop: top,
		CreatedAt:      s.now().UTC(),
	}
	if err := tx.Create(&conversation).Error; err != nil {
		return Conversation{}, err
	}
	return conversation, nil
}
