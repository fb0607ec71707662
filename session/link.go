package session

//go:generate go tool mockgen -source=link.go -destination=mock_link.go -package=session

import (
	"context"

	"i4.energy/across/mfr/at"
)

// Link is the modem a Runner drives. *modem.Modem implements it.
//
// SwitchOff must be safe to call when SwitchOn never completed.
type Link interface {
	SwitchOn(ctx context.Context) error
	SwitchOff() error
	Execute(ctx context.Context, cmd at.Command) (at.Response, error)
}
