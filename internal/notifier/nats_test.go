package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neurowatch-systems/neurowatch/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "neurowatch", cfg.Name)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.NotZero(t, cfg.ReconnectWait)
}

func TestPublishSeizureConfirmed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &NATSPublisher{}
	err := p.PublishSeizureConfirmed(ctx, &models.CorrelatedEvent{
		ID:          "e1",
		UserID:      "user-1",
		TriggeredAt: time.Now(),
		DeviceIDs:   []string{"d1", "d2", "d3"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
