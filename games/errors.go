package games

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for inputs outside a game's valid domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGameFinished is returned for moves on a Won or Lost game. It is also an ErrInvalidArgument.
	ErrGameFinished = fmt.Errorf("%w: game already finished", ErrInvalidArgument)
)
