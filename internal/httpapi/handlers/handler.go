package handlers

import (
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/cases"
	"github.com/lextrack/lextrack/internal/chat"
	"github.com/lextrack/lextrack/internal/config"
	"github.com/lextrack/lextrack/internal/email"
	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/notify"
	"github.com/lextrack/lextrack/internal/settings"
	"github.com/lextrack/lextrack/internal/store/rabbitmq"
	"github.com/lextrack/lextrack/internal/vault"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	SMTPSetting email.SMTPConfig
	Vault       *vault.Store
	Settings    *settings.Store
	ChatSvc     *chat.Service
	CaseSvc     *cases.Service
	NotifySvc   *notify.Service
	Jobs        *chat.JobRepo
	Rabbit      *rabbitmq.Publisher
}

func NewHandler(db *gorm.DB, cfg config.Config, store kv.Store, ai *legalai.Service, rabbit *rabbitmq.Publisher) *Handler {
	v := vault.New(store)
	return &Handler{
		DB:  db,
		Cfg: cfg,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Vault:     v,
		Settings:  settings.NewStore(store),
		ChatSvc:   chat.NewService(v, ai),
		CaseSvc:   cases.NewService(v, ai),
		NotifySvc: notify.NewService(v),
		Jobs:      chat.NewJobRepo(db),
		Rabbit:    rabbit,
	}
}
