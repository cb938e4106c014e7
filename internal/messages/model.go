package messages

import "time"

// Conversation groups the messages between one unordered pair of users. The
// participants are stored in lexicographic order so the pair has exactly one
// row regardless of who messaged first.
type Conversation struct {
	ID             string    `gorm:"column:id;primaryKey;size:190" json:"id"`
	ParticipantLow string    `gorm:"column:participant_low;size:190;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"-"`
	ParticipantTop string    `gorm:"column:participant_top;size:190;not null;uniqueIndex:idx_conversation_pair,priority:2" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName exposes the table backing conversations.
func (Conversation) TableName() string {
	return "conversations"
}

// Participants returns both participant identifiers.
func (c Conversation) Participants() []string {
	return []string{c.ParticipantLow, c.ParticipantTop}
}

// Message is a single direct message inside a conversation.
type Message struct {
	ID             string    `gorm:"column:id;primaryKey;size:190" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;size:190;not null;index" json:"conversationId"`
	SenderID       string    `gorm:"column:sender_id;size:190;not null" json:"senderId"`
	ReceiverID     string    `gorm:"column:receiver_id;size:190;not null" json:"receiverId"`
	Body           string    `gorm:"column:body;size:4096;not null" json:"message"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName exposes the table backing messages.
func (Message) TableName() string {
	return "messages"
}

// normalizePair orders the unordered participant pair for storage and lookup.
func normalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
