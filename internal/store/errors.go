package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/search"
)

var (
	// ErrSearchInFlight is returned by Search while another search is pending.
	ErrSearchInFlight = errors.New("a search is already in progress")
	// ErrSearchReset is returned by Search when Reset abandoned it.
	ErrSearchReset = errors.New("search was reset")
	// ErrNoSession is returned by remote writes attempted while signed out.
	ErrNoSession = errors.New("no active session")
	// ErrNotSynced is returned when an entity has no server ID yet because its
	// remote insert failed earlier.
	ErrNotSynced = errors.New("not yet saved to the server")
)

// ValidationError wraps a user-facing input validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// describeSearchError turns a search failure into the message shown to the user.
func describeSearchError(err error) string {
	var (
		se *search.StatusError
		je *jobFailedError
	)
	switch {
	case errors.As(err, &je):
		return "The search failed: " + je.msg
	case errors.As(err, &se):
		return fmt.Sprintf("The search service returned an error (%d). Please try again.", se.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "The search took too long and was stopped. Please try again."
	case isTimeout(err):
		return "The search took too long and was stopped. Please try again."
	case errors.Is(err, context.Canceled):
		return "The search was cancelled."
	default:
		return "Could not reach the search service. Check your connection and try again."
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// jobFailedError is a background search the server marked failed.
type jobFailedError struct{ msg string }

func (e *jobFailedError) Error() string { return "search job failed: " + e.msg }
