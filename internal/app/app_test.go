package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/meeting-sync/pkg/config"
)

func TestNewRefusesMemoryQueueInProduction(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "production"

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrMemoryQueueInProduction)
	assert.Nil(t, a)
}
