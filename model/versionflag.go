package model

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// VersionFlag is a custom flag type for displaying version information.
type VersionFlag bool

// IsBool implements the kong.BoolMapper interface.
func (v VersionFlag) IsBool() bool { return true }

// BeforeApply prints the version to the app's stdout and exits.
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Fprintln(app.Stdout, vars["version"])
	app.Exit(0)
	return nil
}
