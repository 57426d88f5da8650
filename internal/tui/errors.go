package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/pixels/internal/pixabay"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeFetchErr turns API failures into a status line a user can act on.
func describeFetchErr(err error) string {
	var status *pixabay.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case 400:
			return "request rejected by the API"
		case 401, 403:
			return "API key rejected; set PIXABAY_API_KEY"
		case 429:
			return "rate limited; try again shortly"
		}
	}
	return wrapErr("fetch failed", err).Error()
}
