package entities

import "time"

// Topic is a free-text label attached to conversations.
type Topic struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name     string `gorm:"type:varchar(100);uniqueIndex;not null"`

	Conversations []Conversation `gorm:"many2many:conversation_topics;"`
}

// TableName specifies the table name for Topic.
func (Topic) TableName() string {
	return "topics"
}
