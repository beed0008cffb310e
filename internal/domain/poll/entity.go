package poll

import (
	"time"

	"github.com/google/uuid"
)

// Poll represents the polls table
type Poll struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Question  string    `gorm:"not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time

	// Relationships
	Options []Option `gorm:"foreignKey:PollID"`
}

// Option represents the poll_options table.
// (PollID, Answer) is unique; Position preserves the creator's ordering.
type Option struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PollID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_poll_answer"`
	Answer   string    `gorm:"uniqueIndex:idx_poll_answer;not null"`
	Votes    int64     `gorm:"not null;default:0"`
	Position int       `gorm:"not null"`
}

// Vote represents the poll_votes table: the set of polls a user has
// participated in. One row per (poll, user) pair.
type Vote struct {
	PollID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	VotedAt time.Time
}

func (Poll) TableName() string {
	return "polls"
}

func (Option) TableName() string {
	return "poll_options"
}

func (Vote) TableName() string {
	return "poll_votes"
}
