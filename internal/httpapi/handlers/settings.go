package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/settings"
)

func (h *Handler) GetSettings(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	prefs, err := h.Settings.Load(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50012, "failed to load settings")
		return
	}
	common.OK(c, gin.H{"settings": prefs})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req settings.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Settings.Save(c.Request.Context(), user.ID, req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10008, err.Error())
		return
	}
	common.OK(c, gin.H{"settings": req})
}

func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.Settings.Theme(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50012, "failed to load theme")
		return
	}
	common.OK(c, gin.H{"theme": theme})
}

type themeReq struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *Handler) SetTheme(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	var req themeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Settings.SetTheme(c.Request.Context(), req.Theme); err != nil {
		common.Fail(c, http.StatusBadRequest, 10009, err.Error())
		return
	}
	common.OK(c, gin.H{"theme": req.Theme})
}
