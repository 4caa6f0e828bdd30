package play

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ashenafi-pixel/canister-games-gateway/canister"
	"github.com/Ashenafi-pixel/canister-games-gateway/games"
)

var (
	// ErrBusy is returned while another action on the same mines game is in flight.
	ErrBusy = errors.New("game action already in flight")
	// ErrApprovalFailed is returned when the ledger refused the spend approval; no bet was placed.
	ErrApprovalFailed = errors.New("ledger approval failed")
	ErrNotFound       = errors.New("not found")
	// ErrUnavailable is returned when the canister cannot be reached and no local answer exists.
	ErrUnavailable = errors.New("canister unavailable")
)

// remoteError classifies a failed canister call that was not answered locally.
func remoteError(op string, status int, err error) error {
	switch {
	case canister.IsUnavailable(status, err):
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s: %v", games.ErrGameFinished, op, err)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w: %s: %v", games.ErrInvalidArgument, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
}
