// Package cmdutil holds helpers shared by the catalogcore subcommands.
package cmdutil

import (
	"encoding/json"
	"io"

	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Opener starts the runtime services for a command. The caller closes them.
type Opener func() (*runtime.Services, error)

// WriteJSON prints v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WithServices opens the services, runs fn and closes them again.
func WithServices(open Opener, fn func(*runtime.Services) error) error {
	s, err := open()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}
