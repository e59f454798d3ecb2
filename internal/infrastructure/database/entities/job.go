package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Setting is a key/value row for runtime configuration: remote
// credentials and the sync checkpoint live here.
type Setting struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Key   string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Value string `gorm:"type:text;not null"`
}

// TableName specifies the table name for Setting.
func (Setting) TableName() string {
	return "settings"
}

// EmbeddingJob is a queued unit of embedding work for a newly stored
// message. A separate worker drains the table; this service only
// enqueues.
type EmbeddingJob struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Kind    string         `gorm:"type:varchar(50);not null;index:idx_embedding_jobs_kind_status"`
	Status  string         `gorm:"type:varchar(20);not null;default:'queued';index:idx_embedding_jobs_kind_status"`
	Payload datatypes.JSON `gorm:"type:jsonb;not null"`
}

// TableName specifies the table name for EmbeddingJob.
func (EmbeddingJob) TableName() string {
	return "embedding_jobs"
}
