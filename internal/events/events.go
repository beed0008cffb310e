package events

import "encoding/json"

// Push-channel event names. Wire format is one JSON envelope per text frame.
const (
	EventNewVote     = "new-vote"
	EventVoteUpdated = "vote-updated"
	EventNewPoll     = "new-poll"
)

// Envelope is the outer frame of every push-channel message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OptionState is one answer with its current vote count.
type OptionState struct {
	Answer string `json:"answer"`
	Votes  int64  `json:"votes"`
}

// NewVotePayload is what a client sends to cast a vote. The voter identity
// comes from the connection's session; a client-supplied userId is ignored.
type NewVotePayload struct {
	PollID         string `json:"pollId"`
	SelectedOption string `json:"selectedOption"`
}

// VoteUpdatedPayload carries the full updated option list for a poll.
type VoteUpdatedPayload struct {
	PollID  string        `json:"pollId"`
	Options []OptionState `json:"options"`
}

// NewPollPayload announces a freshly created poll.
type NewPollPayload struct {
	ID       string        `json:"id"`
	Question string        `json:"question"`
	Options  []OptionState `json:"options"`
}

// Marshal wraps a payload in an envelope and serializes it.
func Marshal(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
