package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"livepoll/internal/events"
	"livepoll/internal/middleware"
	"livepoll/internal/services"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests to push connections and dispatches
// inbound vote messages.
type Handler struct {
	hub   *Hub
	polls *services.PollService
	log   *logger.Logger
}

func NewHandler(hub *Hub, polls *services.PollService, log *logger.Logger) *Handler {
	return &Handler{hub: hub, polls: polls, log: log}
}

// Connect binds the connection to the caller's session at upgrade time. The
// session, not the message payload, decides the voter identity.
func (h *Handler) Connect(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, session.UserID, session.Username)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.dispatch(ctx, client, msg)
	}

	h.hub.Unregister(client)
}

func (h *Handler) dispatch(ctx context.Context, client *Client, msg []byte) {
	var envelope events.Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		h.log.Debugf("dropping malformed push message from user %s", client.UserID)
		return
	}

	switch envelope.Event {
	case events.EventNewVote:
		var payload events.NewVotePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			h.log.Debugf("dropping malformed new-vote payload from user %s", client.UserID)
			return
		}
		pollID, err := uuid.Parse(payload.PollID)
		if err != nil {
			h.log.Debugf("dropping new-vote with bad poll id %q", payload.PollID)
			return
		}
		// Fire-and-forget: persistence failures are logged, never
		// reported back over the channel.
		if _, err := h.polls.RecordVote(ctx, pollID, payload.SelectedOption, client.UserID); err != nil {
			h.log.Errorf("failed to record vote on poll %s: %s", pollID, err)
		}
	default:
		h.log.Debugf("ignoring unknown push event %q", envelope.Event)
	}
}
