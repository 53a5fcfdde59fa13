package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-sync/internal/app"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	"github.com/johnquangdev/meeting-sync/pkg/logger"
)

// commandContext loads configuration and connections lazily so that flag
// errors surface before anything is dialed.
type commandContext struct {
	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error

	app *app.App
	db  *gorm.DB
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, *zap.Logger, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		zl, err := logger.New(cfg.Server.Environment)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = zl
	})
	return c.config, c.logger, c.configErr
}

func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, zl, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) ensureDB() (*gorm.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	cfg, zl, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgresDB(cfg, zl)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
	}
	if c.db != nil {
		_ = database.CloseDB(c.db)
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
