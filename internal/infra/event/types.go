package event

import (
	"context"
	"errors"
)

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]interface{}) error

// ErrPoisonMessage marks a delivery that can never succeed. Wrappers do not
// retry it and the consumer drops it instead of requeueing.
var ErrPoisonMessage = errors.New("poison message")
