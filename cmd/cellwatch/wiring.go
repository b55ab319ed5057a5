package main

import (
	"io"
	"os"

	"cellwatch/internal/config"
	"cellwatch/internal/operator"
	"cellwatch/internal/permission"
	"cellwatch/internal/radio"
)

// source is what the pollers need from the hardware boundary.
type source interface {
	radio.CellSource
	radio.LocationSource
}

func newSource(c config.Config) source {
	if c.Source.Kind == "file" {
		return radio.NewFile(c.Source.Path)
	}
	return radio.NewMMCLI(c.Source.Modem)
}

// Terminal used by the prompt authority.
var (
	promptIn  io.Reader = os.Stdin
	promptOut io.Writer = os.Stderr
)

func newAuthority(c config.Config) (permission.Authority, error) {
	if c.Permissions.Mode == "static" {
		kinds, err := c.GrantedKinds()
		if err != nil {
			return nil, err
		}
		return permission.NewStatic(kinds...), nil
	}
	return permission.NewPrompt(promptIn, promptOut), nil
}

// openOperators opens the configured directory, or returns nil when none
// is configured.
func openOperators(c config.Config) (*operator.Directory, error) {
	if c.Operators.DB == "" {
		return nil, nil
	}
	return operator.Open(c.Operators.DB)
}
