package entities

import (
	"time"

	"gorm.io/datatypes"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/sourcetype"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Title    string `gorm:"type:varchar(512);not null;default:'Untitled'"`

	// SourceType and SourceID together identify the remote origin of a
	// synced conversation. SourceID is NULL for manual imports without a
	// stable remote identity; Postgres treats NULLs as distinct in the
	// composite unique index, so such rows never collide.
	SourceType      sourcetype.SourceType `gorm:"type:varchar(20);not null;default:'unknown';uniqueIndex:idx_conversations_source_lookup;index"`
	SourceID        *string               `gorm:"type:varchar(255);uniqueIndex:idx_conversations_source_lookup"`
	SourceUpdatedAt *time.Time            `gorm:"index"`

	IsSaved bool `gorm:"not null;default:false;index"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
	Topics   []Topic   `gorm:"many2many:conversation_topics;"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents the database schema for conversation messages
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID       string       `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint         `gorm:"index:idx_messages_conversation_sequence;not null"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID"`

	Role    string `gorm:"type:varchar(20);not null"`
	Content string `gorm:"type:text;not null"`

	// SourceMessageID is the remote message ID when known; ContentHash is
	// the fallback dedup key for messages without one.
	SourceMessageID *string `gorm:"type:varchar(255);index"`
	ContentHash     string  `gorm:"type:varchar(16);not null;index"`

	Sequence int            `gorm:"index:idx_messages_conversation_sequence;not null;default:0"`
	Metadata datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// ===============================================
// Conversion Functions
// ===============================================

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	messages := make([]conversation.Message, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = *m.EtoD()
	}

	topics := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		topics[i] = t.Name
	}

	return &conversation.Conversation{
		ID:              c.ID,
		PublicID:        c.PublicID,
		Title:           c.Title,
		SourceType:      c.SourceType,
		SourceID:        c.SourceID,
		SourceUpdatedAt: c.SourceUpdatedAt,
		IsSaved:         c.IsSaved,
		Messages:        messages,
		Topics:          topics,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:              c.ID,
		PublicID:        c.PublicID,
		Title:           c.Title,
		SourceType:      c.SourceType,
		SourceID:        c.SourceID,
		SourceUpdatedAt: c.SourceUpdatedAt,
		IsSaved:         c.IsSaved,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// EtoD converts database entity to domain model
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:              m.ID,
		PublicID:        m.PublicID,
		ConversationID:  m.ConversationID,
		Role:            m.Role,
		Content:         m.Content,
		SourceMessageID: m.SourceMessageID,
		ContentHash:     m.ContentHash,
		Sequence:        m.Sequence,
		Metadata:        decodeMetadata(m.Metadata),
		CreatedAt:       m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:              m.ID,
		PublicID:        m.PublicID,
		ConversationID:  m.ConversationID,
		Role:            m.Role,
		Content:         m.Content,
		SourceMessageID: m.SourceMessageID,
		ContentHash:     m.ContentHash,
		Sequence:        m.Sequence,
		Metadata:        encodeMetadata(m.Metadata),
		CreatedAt:       m.CreatedAt,
	}
}
