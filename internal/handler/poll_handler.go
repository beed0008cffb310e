package handler

import (
	"errors"
	"net/http"
	"strings"

	"livepoll/internal/middleware"
	"livepoll/internal/services"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PollHandler handles the session-gated poll pages.
type PollHandler struct {
	polls *services.PollService
	log   *logger.Logger
}

func NewPollHandler(polls *services.PollService, log *logger.Logger) *PollHandler {
	return &PollHandler{polls: polls, log: log}
}

// Dashboard lists all polls.
func (h *PollHandler) Dashboard(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)

	polls, err := h.polls.ListPolls(c.Request.Context())
	if err != nil {
		h.log.Errorf("failed to list polls: %s", err)
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"Username":     session.Username,
			"Polls":        nil,
			"ErrorMessage": "Error loading polls, please try again",
		})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Username":     session.Username,
		"Polls":        polls,
		"ErrorMessage": nil,
	})
}

// Profile shows the username and how many polls the user voted in.
func (h *PollHandler) Profile(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)

	count, err := h.polls.VotedCount(c.Request.Context(), session.UserID)
	if err != nil {
		h.log.Errorf("failed to count votes for user %s: %s", session.UserID, err)
		count = 0
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Username":   session.Username,
		"VotedCount": count,
	})
}

// CreatePollForm renders the poll creation page.
func (h *PollHandler) CreatePollForm(c *gin.Context) {
	c.HTML(http.StatusOK, "createPoll.html", gin.H{"ErrorMessage": nil})
}

// CreatePoll processes the poll creation form.
func (h *PollHandler) CreatePoll(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)

	question := strings.TrimSpace(c.PostForm("question"))
	var answers []string
	for _, opt := range c.PostFormArray("options") {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			answers = append(answers, trimmed)
		}
	}

	_, err := h.polls.Create(c.Request.Context(), question, answers, session.UserID)
	if err != nil {
		message := "Error creating the poll, please try again"
		if errors.Is(err, livepoll_errors.ErrInvalidInput) {
			message = "A question and at least one distinct option are required"
		} else {
			h.log.Errorf("failed to create poll: %s", err)
		}
		c.HTML(http.StatusOK, "createPoll.html", gin.H{"ErrorMessage": message})
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}
