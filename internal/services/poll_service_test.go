package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/events"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
)

func newPollServiceForTest(t *testing.T) (*PollService, *fakePollRepo, *fakeUserRepo, *recordingBroadcaster) {
	t.Helper()
	polls := newFakePollRepo()
	users := newFakeUserRepo()
	broadcaster := &recordingBroadcaster{}
	svc := NewPollService(polls, users, broadcaster, logger.New(logger.DevelopmentMode))
	return svc, polls, users, broadcaster
}

func seedUser(t *testing.T, users *fakeUserRepo, username string) user.User {
	t.Helper()
	u := user.User{ID: uuid.New(), Username: username, PasswordHash: "x", CreatedAt: time.Now()}
	if err := users.Create(context.Background(), &u); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return u
}

func seedColorPoll(t *testing.T, polls *fakePollRepo, createdBy uuid.UUID) poll.Poll {
	t.Helper()
	p := poll.Poll{
		ID:        uuid.New(),
		Question:  "Color?",
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	p.Options = []poll.Option{
		{ID: uuid.New(), PollID: p.ID, Answer: "Red", Votes: 0, Position: 0},
		{ID: uuid.New(), PollID: p.ID, Answer: "Blue", Votes: 0, Position: 1},
	}
	if err := polls.Create(context.Background(), &p); err != nil {
		t.Fatalf("failed to seed poll: %v", err)
	}
	return p
}

func decodeEnvelope(t *testing.T, raw []byte) (string, json.RawMessage) {
	t.Helper()
	var envelope events.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("broadcast payload is not a valid envelope: %v", err)
	}
	return envelope.Event, envelope.Data
}

func TestRecordVoteIncrementsAndBroadcasts(t *testing.T) {
	svc, polls, users, broadcaster := newPollServiceForTest(t)
	creator := seedUser(t, users, "alice")
	voter := seedUser(t, users, "bob")
	p := seedColorPoll(t, polls, creator.ID)

	outcome, err := svc.RecordVote(context.Background(), p.ID, "Red", voter.ID)
	if err != nil {
		t.Fatalf("RecordVote returned error: %v", err)
	}
	if outcome != VoteAccepted {
		t.Fatalf("expected VoteAccepted, got %v", outcome)
	}

	options, _ := polls.GetOptions(context.Background(), p.ID)
	if options[0].Votes != 1 || options[1].Votes != 0 {
		t.Errorf("expected Red=1 Blue=0, got Red=%d Blue=%d", options[0].Votes, options[1].Votes)
	}

	voted, _ := polls.HasVoted(context.Background(), p.ID, voter.ID)
	if !voted {
		t.Error("expected the poll to be recorded in the voter's participation set")
	}

	sent := broadcaster.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", len(sent))
	}
	event, data := decodeEnvelope(t, sent[0])
	if event != events.EventVoteUpdated {
		t.Fatalf("expected %q event, got %q", events.EventVoteUpdated, event)
	}
	var payload events.VoteUpdatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to decode vote-updated payload: %v", err)
	}
	if payload.PollID != p.ID.String() {
		t.Errorf("expected poll id %s, got %s", p.ID, payload.PollID)
	}
	want := []events.OptionState{{Answer: "Red", Votes: 1}, {Answer: "Blue", Votes: 0}}
	if len(payload.Options) != len(want) {
		t.Fatalf("expected %d options, got %d", len(want), len(payload.Options))
	}
	for i, opt := range want {
		if payload.Options[i] != opt {
			t.Errorf("option %d: expected %+v, got %+v", i, opt, payload.Options[i])
		}
	}
}

func TestRecordVoteIgnoredOutcomes(t *testing.T) {
	svc, polls, users, broadcaster := newPollServiceForTest(t)
	creator := seedUser(t, users, "alice")
	voter := seedUser(t, users, "bob")
	p := seedColorPoll(t, polls, creator.ID)

	tests := []struct {
		name    string
		pollID  uuid.UUID
		answer  string
		userID  uuid.UUID
		outcome VoteOutcome
	}{
		{"unknown poll", uuid.New(), "Red", voter.ID, VoteIgnoredUnknownPoll},
		{"unknown user", p.ID, "Red", uuid.New(), VoteIgnoredUnknownUser},
		{"unknown option", p.ID, "Green", voter.ID, VoteIgnoredUnknownOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := svc.RecordVote(context.Background(), tt.pollID, tt.answer, tt.userID)
			if err != nil {
				t.Fatalf("RecordVote returned error: %v", err)
			}
			if outcome != tt.outcome {
				t.Errorf("expected outcome %v, got %v", tt.outcome, outcome)
			}
		})
	}

	options, _ := polls.GetOptions(context.Background(), p.ID)
	for _, opt := range options {
		if opt.Votes != 0 {
			t.Errorf("expected no counter changes, %s has %d votes", opt.Answer, opt.Votes)
		}
	}
	if len(broadcaster.sent()) != 0 {
		t.Errorf("expected no broadcasts, got %d", len(broadcaster.sent()))
	}
}

func TestRecordVoteRepeatIncrementsAgain(t *testing.T) {
	svc, polls, users, _ := newPollServiceForTest(t)
	creator := seedUser(t, users, "alice")
	voter := seedUser(t, users, "bob")
	p := seedColorPoll(t, polls, creator.ID)

	for i := 0; i < 2; i++ {
		if _, err := svc.RecordVote(context.Background(), p.ID, "Red", voter.ID); err != nil {
			t.Fatalf("vote %d failed: %v", i+1, err)
		}
	}

	options, _ := polls.GetOptions(context.Background(), p.ID)
	if options[0].Votes != 2 {
		t.Errorf("expected Red=2 after repeat vote, got %d", options[0].Votes)
	}

	// Participation is a set: still one poll voted in.
	count, _ := polls.CountVotedByUser(context.Background(), voter.ID)
	if count != 1 {
		t.Errorf("expected participation count 1, got %d", count)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, users, broadcaster := newPollServiceForTest(t)
	creator := seedUser(t, users, "alice")

	tests := []struct {
		name     string
		question string
		answers  []string
	}{
		{"empty question", "", []string{"Red", "Blue"}},
		{"no options", "Color?", nil},
		{"empty option", "Color?", []string{"Red", ""}},
		{"duplicate options", "Color?", []string{"Red", "Red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.question, tt.answers, creator.ID)
			if !errors.Is(err, livepoll_errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if len(broadcaster.sent()) != 0 {
		t.Errorf("expected no broadcasts for rejected polls, got %d", len(broadcaster.sent()))
	}
}

func TestCreatePersistsAndBroadcasts(t *testing.T) {
	svc, polls, users, broadcaster := newPollServiceForTest(t)
	creator := seedUser(t, users, "alice")

	id, err := svc.Create(context.Background(), "Color?", []string{"Red", "Blue"}, creator.ID)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	stored, err := polls.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("created poll not found: %v", err)
	}
	if stored.Question != "Color?" || stored.CreatedBy != creator.ID {
		t.Errorf("unexpected stored poll: %+v", stored)
	}
	for _, opt := range stored.Options {
		if opt.Votes != 0 {
			t.Errorf("expected option %q to start at 0 votes, got %d", opt.Answer, opt.Votes)
		}
	}

	sent := broadcaster.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one broadcast, got %d", len(sent))
	}
	event, data := decodeEnvelope(t, sent[0])
	if event != events.EventNewPoll {
		t.Fatalf("expected %q event, got %q", events.EventNewPoll, event)
	}
	var payload events.NewPollPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to decode new-poll payload: %v", err)
	}
	if payload.ID != id.String() || payload.Question != "Color?" {
		t.Errorf("unexpected new-poll payload: %+v", payload)
	}
	if len(payload.Options) != 2 || payload.Options[0].Answer != "Red" || payload.Options[1].Answer != "Blue" {
		t.Errorf("unexpected new-poll options: %+v", payload.Options)
	}
}
