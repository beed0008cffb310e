package services

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
)

// Broadcaster fans a serialized message out to every open push connection.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// VoteOutcome names what happened to a vote request. The ignored outcomes
// are deliberate contract: the push channel gives the voter no feedback, so
// an invalid vote ends here instead of in an error path.
type VoteOutcome int

const (
	VoteAccepted VoteOutcome = iota
	VoteIgnoredUnknownPoll
	VoteIgnoredUnknownUser
	VoteIgnoredUnknownOption
)

type PollService struct {
	polls       repository.PollRepository
	users       repository.UserRepository
	broadcaster Broadcaster
	log         *logger.Logger
}

func NewPollService(polls repository.PollRepository, users repository.UserRepository, broadcaster Broadcaster, log *logger.Logger) *PollService {
	return &PollService{
		polls:       polls,
		users:       users,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Create persists a new poll and announces it to every open connection.
// Every answer starts at zero votes.
func (s *PollService) Create(ctx context.Context, question string, answers []string, creatorID uuid.UUID) (uuid.UUID, error) {
	if question == "" || len(answers) == 0 {
		return uuid.Nil, livepoll_errors.ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(answers))
	options := make([]poll.Option, 0, len(answers))
	for i, answer := range answers {
		if answer == "" {
			return uuid.Nil, livepoll_errors.ErrInvalidInput
		}
		if _, dup := seen[answer]; dup {
			return uuid.Nil, livepoll_errors.ErrInvalidInput
		}
		seen[answer] = struct{}{}
		options = append(options, poll.Option{
			ID:       uuid.New(),
			Answer:   answer,
			Votes:    0,
			Position: i,
		})
	}

	p := &poll.Poll{
		ID:        uuid.New(),
		Question:  question,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
		Options:   options,
	}
	for i := range p.Options {
		p.Options[i].PollID = p.ID
	}

	if err := s.polls.Create(ctx, p); err != nil {
		return uuid.Nil, err
	}

	s.broadcastEvent(events.EventNewPoll, events.NewPollPayload{
		ID:       p.ID.String(),
		Question: p.Question,
		Options:  toOptionStates(p.Options),
	})

	return p.ID, nil
}

// RecordVote applies one vote to (pollID, answer) on behalf of userID.
//
// An unknown poll, user, or option ends the operation without mutation or
// broadcast; the caller gets the outcome, the voter gets nothing. The counter
// increment is a single conditional UPDATE and the participation record is an
// insert-ignore row, so concurrent votes never lose updates. A repeat vote by
// the same user still increments the counter; the participation set only
// records membership.
func (s *PollService) RecordVote(ctx context.Context, pollID uuid.UUID, answer string, userID uuid.UUID) (VoteOutcome, error) {
	if _, err := s.polls.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			s.log.Debugf("vote ignored: unknown poll %s", pollID)
			return VoteIgnoredUnknownPoll, nil
		}
		return VoteAccepted, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			s.log.Debugf("vote ignored: unknown user %s", userID)
			return VoteIgnoredUnknownUser, nil
		}
		return VoteAccepted, err
	}

	if err := s.polls.IncrementOption(ctx, pollID, answer); err != nil {
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			s.log.Debugf("vote ignored: poll %s has no option %q", pollID, answer)
			return VoteIgnoredUnknownOption, nil
		}
		return VoteAccepted, err
	}

	if err := s.polls.MarkVoted(ctx, pollID, userID); err != nil {
		// The counter already moved; the participation record is
		// best-effort.
		s.log.Errorf("failed to record participation for user %s on poll %s: %s", userID, pollID, err)
	}

	options, err := s.polls.GetOptions(ctx, pollID)
	if err != nil {
		return VoteAccepted, err
	}

	s.broadcastEvent(events.EventVoteUpdated, events.VoteUpdatedPayload{
		PollID:  pollID.String(),
		Options: toOptionStates(options),
	})

	return VoteAccepted, nil
}

// ListPolls returns all polls with their options, newest first.
func (s *PollService) ListPolls(ctx context.Context) ([]poll.Poll, error) {
	return s.polls.ListAll(ctx)
}

// VotedCount returns how many polls the user has voted in.
func (s *PollService) VotedCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.polls.CountVotedByUser(ctx, userID)
}

// HasVoted reports whether the user already voted in the poll.
func (s *PollService) HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error) {
	return s.polls.HasVoted(ctx, pollID, userID)
}

func (s *PollService) broadcastEvent(event string, payload any) {
	data, err := events.Marshal(event, payload)
	if err != nil {
		s.log.Errorf("failed to marshal %s event: %s", event, err)
		return
	}
	s.broadcaster.Broadcast(data)
}

func toOptionStates(options []poll.Option) []events.OptionState {
	states := make([]events.OptionState, 0, len(options))
	for _, opt := range options {
		states = append(states, events.OptionState{
			Answer: opt.Answer,
			Votes:  opt.Votes,
		})
	}
	return states
}
