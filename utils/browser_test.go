package utils

import (
	"context"
	"testing"

	"swatch-extractor/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewBrowserClient(t *testing.T) {
	config := types.DefaultConfig()

	client := NewBrowserClient(config, logrus.New())

	assert.Equal(t, config.RequestDelay, client.pacer.Delay())
	var _ PageFetcher = client
}

func TestBrowserClient_Fetch_ContextCancelled(t *testing.T) {
	config := types.DefaultConfig()
	client := NewBrowserClient(config, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the pacer notices the cancelled context before Chrome is launched
	_, err := client.Fetch(ctx, "http://example.com")

	assert.Equal(t, context.Canceled, err)
}
