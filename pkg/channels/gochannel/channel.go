// Package gochannel provides the in-memory event bus channel used by default and in tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// CreateChannel creates a GoChannel pub/sub for a single process. Events never
// leave the process and publishing never waits for subscribers.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return create(logger, gochannel.Config{
		OutputChannelBuffer:            256,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: false,
	})
}

// CreateTestChannel blocks each publish until subscribers ack it, so tests
// observe deliveries deterministically.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return create(logger, gochannel.Config{
		OutputChannelBuffer:            16,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: true,
	})
}

// The same instance serves as publisher and subscriber.
func create(logger watermill.LoggerAdapter, config gochannel.Config) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
