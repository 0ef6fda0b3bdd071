package coordinator

import (
	"errors"

	"github.com/atelierluma/videowall/internal/mpv"
)

// isConnectionError reports whether an instance's channel is gone for good,
// as opposed to a command that merely timed out.
func isConnectionError(err error) bool {
	return errors.Is(err, mpv.ErrConnection)
}
