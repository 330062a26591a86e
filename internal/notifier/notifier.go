package notifier

import (
	"context"
	"log"
)

// Notifier delivers alert text to the operator.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// ConsoleNotifier logs alerts instead of delivering them, for runs without a
// Telegram bot configured.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier { return &ConsoleNotifier{} }

func (c *ConsoleNotifier) Send(_ context.Context, text string) error {
	log.Printf("[INFO] alert:\n%s", text)
	return nil
}
