package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/auth"
	"github.com/lextrack/lextrack/internal/common"
	"github.com/lextrack/lextrack/internal/email"
	"github.com/lextrack/lextrack/internal/httpapi/middleware"
	"github.com/lextrack/lextrack/internal/models"
)

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "up"})
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email, password and fullName required")
		return
	}
	if len(req.Password) < 6 {
		common.Fail(c, http.StatusBadRequest, 10003, "password must be at least 6 characters")
		return
	}
	if !models.ValidRole(req.Role) {
		common.Fail(c, http.StatusBadRequest, 10004, "role must be advocate or client")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	user := models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "failed to create user (maybe email already exists)")
		return
	}

	token, err := auth.SignJWT(user.ID, user.Role, h.Cfg.JWTSecret, h.Cfg.JWTTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to sign token")
		return
	}

	go func(to, name string) {
		subject := "Welcome to LexTrack — Your vault is ready"
		body := "Hello " + name + ",\n\n" +
			"Welcome to LexTrack. Your account has been successfully created.\n\n" +
			"Your case vault, hearing reminders and the AI collaborator are ready to use.\n\n" +
			"If you did not request this account, please contact our support immediately.\n\n" +
			"Best regards,\n" +
			"LexTrack\n"
		_ = email.SendText(h.SMTPSetting, to, subject, body)
	}(user.Email, user.FullName)

	common.OK(c, gin.H{
		"user":  userView(user),
		"token": token,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
		return
	}

	token, err := auth.SignJWT(user.ID, user.Role, h.Cfg.JWTSecret, h.Cfg.JWTTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"user":  userView(user),
		"token": token,
	})
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{"user": userView(user)})
}

// currentUser resolves the authenticated user, writing the error response
// itself on failure. A deleted user invalidates outstanding tokens here.
func (h *Handler) currentUser(c *gin.Context) (models.User, bool) {
	uid := c.GetString(middleware.UserIDKey)
	if uid == "" {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return models.User{}, false
	}
	var user models.User
	err := h.DB.WithContext(c.Request.Context()).First(&user, "id = ?", uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40104, "account no longer exists")
			return models.User{}, false
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return models.User{}, false
	}
	return user, true
}

func userView(u models.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"email":    u.Email,
		"fullName": u.FullName,
		"role":     u.Role,
	}
}
