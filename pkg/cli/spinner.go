package cli

import (
	"github.com/charmbracelet/huh/spinner"
)

// RunSpinnerWithResult runs fn behind a spinner and returns its error. JSON
// output skips the spinner so stdout stays machine readable.
func RunSpinnerWithResult(title string, fn func() error) error {
	if IsJSONOutput() {
		return fn()
	}

	var actionErr error
	err := spinner.New().
		Title("  " + title).
		Action(func() {
			actionErr = fn()
		}).
		Run()

	if err != nil {
		return err
	}
	return actionErr
}
