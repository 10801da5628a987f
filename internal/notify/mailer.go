// README: Outbound notification transport boundary.
package notify

import "context"

// Mailer delivers one plain-text message. Implementations are fire-and-forget
// from the caller's point of view: the dispatcher logs failures and moves on,
// it never retries or rolls anything back.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
