package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/notify"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	notifs, err := h.NotifySvc.List(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to list notifications")
		return
	}
	common.OK(c, gin.H{"notifications": notifs})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	err := h.NotifySvc.MarkRead(c.Request.Context(), user.ID, c.Param("notification_id"))
	if err != nil {
		if errors.Is(err, notify.ErrNotificationNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "notification not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to update notification")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.NotifySvc.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to update notifications")
		return
	}
	common.OK(c, nil)
}
