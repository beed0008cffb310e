package repository

import (
	"context"

	"github.com/google/uuid"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error)
	ListAll(ctx context.Context) ([]poll.Poll, error)

	// IncrementOption adds one vote to the option identified by (pollID,
	// answer). Returns ErrNotFound when no such option exists.
	IncrementOption(ctx context.Context, pollID uuid.UUID, answer string) error
	GetOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error)

	// MarkVoted records that the user participated in the poll. Recording
	// the same pair twice is a no-op.
	MarkVoted(ctx context.Context, pollID, userID uuid.UUID) error
	HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error)
	CountVotedByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
