package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/models"
)

// PurgeVault wipes every collection, all settings, and every account. Any
// outstanding token dies at the next user lookup.
func (h *Handler) PurgeVault(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.Vault.PurgeAll(ctx); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to purge records")
		return
	}
	if err := h.Settings.PurgeAll(ctx); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to purge settings")
		return
	}
	if err := h.Jobs.PurgeAll(ctx); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to purge jobs")
		return
	}
	if err := h.DB.WithContext(ctx).Where("1 = 1").Delete(&models.User{}).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to purge users")
		return
	}

	zap.S().Warnw("vault purged", "requested_by", user.ID)
	common.OK(c, nil)
}
