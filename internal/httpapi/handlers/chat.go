package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/chat"
	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/vault"
)

func (h *Handler) ListChatSessions(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessions, err := h.ChatSvc.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list sessions")
		return
	}
	// history view omits message bodies
	type sessionView struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"createdAt"`
		IsPinned  bool      `json:"isPinned"`
		Messages  int       `json:"messageCount"`
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			ID:        s.ID,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			IsPinned:  s.IsPinned,
			Messages:  len(s.Messages),
		})
	}
	common.OK(c, gin.H{"sessions": views})
}

func (h *Handler) GetChatSession(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	sess, err := h.ChatSvc.GetSession(c.Request.Context(), user.ID, c.Param("session_id"))
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to load session")
		return
	}
	common.OK(c, gin.H{"session": sess})
}

type sendMessageReq struct {
	SessionID   string             `json:"session_id"`
	Message     string             `json:"message" binding:"required"`
	Attachments []vault.Attachment `json:"attachments"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, reply, err := h.ChatSvc.SendMessage(c.Request.Context(), user.ID, user.Role, req.SessionID, req.Message, req.Attachments)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to send message")
		return
	}

	common.OK(c, gin.H{
		"session_id": sess.ID,
		"reply":      reply,
	})
}

// SendChatMessageAsync stores the user message, queues an analysis job and
// returns immediately; the worker appends the reply.
func (h *Handler) SendChatMessageAsync(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50006, "queued analysis unavailable")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, 10006, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	sess, err := h.ChatSvc.AppendUserMessage(c.Request.Context(), user.ID, user.Role, req.SessionID, req.Message, req.Attachments)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to store message")
		return
	}

	jobID, err := chat.NewID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	job, created, err := h.Jobs.CreateOrGetExisting(c.Request.Context(), &chat.Job{
		ID:             jobID,
		UserID:         user.ID,
		SessionID:      sess.ID,
		Prompt:         req.Message,
		IdempotencyKey: idempoKeyPtr,
		Status:         chat.JobQueued,
	})
	if err != nil {
		zap.S().Errorw("create analysis job failed", "user_id", user.ID, "session_id", sess.ID, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
			zap.S().Errorw("enqueue analysis job failed", "job_id", job.ID, "error", err)
			common.Fail(c, http.StatusInternalServerError, 50007, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{
		"session_id": sess.ID,
		"job_id":     job.ID,
	})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10007, "job_id required")
		return
	}

	j, err := h.Jobs.GetByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != user.ID {
		// hide existence
		common.Fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	common.OK(c, gin.H{"job": j})
}

func (h *Handler) DeleteChatSession(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	err := h.ChatSvc.DeleteSession(c.Request.Context(), user.ID, c.Param("session_id"))
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to delete session")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ToggleChatPin(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	sess, err := h.ChatSvc.TogglePin(c.Request.Context(), user.ID, c.Param("session_id"))
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to update session")
		return
	}
	common.OK(c, gin.H{"id": sess.ID, "isPinned": sess.IsPinned})
}
