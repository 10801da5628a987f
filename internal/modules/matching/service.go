// README: Notification dispatcher; fans new listings out to nearby receivers.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"foodbridge/internal/geo"
	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/modules/user"
)

var ErrEmptyBatch = errors.New("empty listing batch")

// UserDirectory is the read-only slice of the user store the dispatcher needs.
type UserDirectory interface {
	FindByRole(ctx context.Context, role string) ([]user.User, error)
}

// Mailer is the outbound transport. Send failures are logged and swallowed:
// no retry, no dedup across repeated calls, nothing propagates to the
// listing-creation path.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

const notifySubject = "Food Item Available"

type Dispatcher struct {
	users    UserDirectory
	mailer   Mailer
	radiusKm float64
}

func NewDispatcher(users UserDirectory, mailer Mailer, radiusKm float64) *Dispatcher {
	return &Dispatcher{users: users, mailer: mailer, radiusKm: radiusKm}
}

// NotifyNearby sends one summary message per receiver within the radius of
// the batch's pickup point. The batch belongs to one donor submission; the
// first listing's coordinates stand for the whole batch. The radius boundary
// is inclusive. Returns how many receivers were messaged.
func (d *Dispatcher) NotifyNearby(ctx context.Context, listings []inventory.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, ErrEmptyBatch
	}
	origin := listings[0].Pickup

	receivers, err := d.users.FindByRole(ctx, user.RoleReceiver)
	if err != nil {
		return 0, err
	}

	body := d.composeBody(listings)
	notified := 0
	for _, r := range receivers {
		distance := geo.DistanceKm(origin.Lat, origin.Lng, r.Home.Lat, r.Home.Lng)
		if distance > d.radiusKm {
			continue
		}
		if err := d.mailer.Send(ctx, r.Email, notifySubject, body); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"receiver_id": r.ID,
				"distance_km": distance,
			}).Warn("notification send failed")
			continue
		}
		notified++
	}
	return notified, nil
}

func (d *Dispatcher) composeBody(listings []inventory.Listing) string {
	origin := listings[0].Pickup
	var b strings.Builder
	b.WriteString("Available food items:\n")
	for _, l := range listings {
		b.WriteString(l.Name)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Pickup location: %v, %v\n", origin.Lat, origin.Lng)
	fmt.Fprintf(&b, "Distance: %v km\n", d.radiusKm)
	b.WriteString("Please respond if you are interested.")
	return b.String()
}
