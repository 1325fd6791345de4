package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/chat"
	"github.com/lextrack/lextrack/internal/config"
	"github.com/lextrack/lextrack/internal/models"
)

// Connect opens the relational store (users and analysis jobs) and runs
// auto-migration. Driver "mysql" is the production default; "sqlite" serves
// single-node dev setups.
func Connect(cfg config.Config) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "mysql":
		gdb, err = gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	case "sqlite":
		gdb, err = gorm.Open(sqlite.Open(cfg.DBFile), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER=%q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &chat.Job{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return gdb, nil
}
