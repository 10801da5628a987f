// README: User directory model; consumed read-only by the notification dispatcher.
package user

import (
	"foodbridge/internal/types"
)

const (
	RoleDonor    = "DONOR"
	RoleReceiver = "RECEIVER"
)

type User struct {
	ID    types.ID
	Email string
	Name  string
	Role  string
	Home  types.Point
	// Availability window for pickups, "HH:MM" wall-clock strings.
	AvailableFrom string
	AvailableTo   string
}
