package port

import "context"

// Messenger sends text toward the chat platform. Both calls are
// fire-and-forget from the core's perspective: errors are logged by the
// caller, never escalated.
type Messenger interface {
	// Reply answers a single inbound message via its correlation token.
	Reply(ctx context.Context, replyToken, text string) error
	// Push sends an unsolicited message to a subscriber.
	Push(ctx context.Context, to, text string) error
}
