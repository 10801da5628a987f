// README: Circuit breaker decorator around the Mailer boundary.
package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerMailer wraps a Mailer with a circuit breaker so that a dead SMTP
// relay fails fast instead of stalling every listing-creation request.
type BreakerMailer struct {
	inner Mailer
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerMailer(inner Mailer) *BreakerMailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mailer",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("mailer circuit breaker state change")
		},
	})
	return &BreakerMailer{inner: inner, cb: cb}
}

func (m *BreakerMailer) Send(ctx context.Context, to, subject, body string) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.inner.Send(ctx, to, subject, body)
	})
	return err
}
