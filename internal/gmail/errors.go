package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/crowdvoice-labs/gmailsource/internal/core/domain"
)

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// IsHistoryInvalid returns true if the error indicates an expired or unknown
// Gmail history id. Gmail answers 404 when the startHistoryId is too old;
// checkpoints expire after roughly a week of mailbox inactivity. The caller
// must fall back to a full sync.
func IsHistoryInvalid(err error) bool {
	if errors.Is(err, domain.ErrHistoryInvalid) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// wrapHistoryError maps a history.list failure onto the domain taxonomy so
// business logic never inspects provider status codes. Only valid for the
// history endpoint, where 404/410 means the checkpoint is gone rather than
// a missing resource.
func wrapHistoryError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusNotFound, http.StatusGone:
		return domain.ErrHistoryInvalid
	default:
		return err
	}
}
