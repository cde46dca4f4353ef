package cli

import (
	"os"

	"github.com/charmbracelet/huh"
)

// newAccessibleForm builds a huh.Form, switching to huh's accessible
// (sequential, screen-reader-friendly) rendering mode when the ACCESSIBLE
// environment variable is set, per huh's own documented convention.
func newAccessibleForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...)
	if os.Getenv("ACCESSIBLE") != "" {
		form = form.WithAccessible(true)
	}
	return form
}
