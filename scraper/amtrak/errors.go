package amtrak

import (
	"errors"
	"strings"
)

var (
	// ErrSurfaceUnavailable means no browser tab could be acquired or created
	ErrSurfaceUnavailable = errors.New("controlled surface unavailable")
	// ErrFieldNotFound means a required form control is missing
	ErrFieldNotFound = errors.New("form field not found")
	// ErrActionBlocked means the search button is absent or stays disabled
	ErrActionBlocked = errors.New("search action blocked")
	// ErrChannelClosed means the page went away while a call was in flight,
	// usually because the call itself caused a navigation
	ErrChannelClosed = errors.New("agent channel closed")
)

var channelClosedMarkers = []string{
	"execution context was destroyed",
	"cannot find context with specified id",
	"inspected target navigated or closed",
	"target closed",
	"session closed",
}

func isChannelClosed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range channelClosedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
