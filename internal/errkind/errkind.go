// Package errkind names the error categories shared by the resolver, the
// sheet parser, the scheduler and the event buffer.
package errkind

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	// ParseInvalid marks a chord symbol that cannot be resolved.
	ParseInvalid ftag.Kind = "PARSE_INVALID"
	// DirectiveInvalid marks a directive whose value is malformed.
	DirectiveInvalid ftag.Kind = "DIRECTIVE_INVALID"
	// MissingLabel marks a loop that references an unknown label.
	MissingLabel ftag.Kind = "MISSING_LABEL"
	// BufferClosed marks an operation on a closed event buffer.
	BufferClosed ftag.Kind = "BUFFER_CLOSED"
	// ConfigInvalid marks a configuration value outside its allowed range.
	ConfigInvalid ftag.Kind = "CONFIG_INVALID"
)

// New builds a tagged error whose text is msg.
func New(kind ftag.Kind, msg string) error {
	return fault.Wrap(fault.New(msg), ftag.With(kind))
}

// Wrap tags err with kind and adds a context message.
func Wrap(err error, kind ftag.Kind, msg string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(err, fmsg.With(msg), ftag.With(kind))
}

// Is reports whether err carries kind.
func Is(err error, kind ftag.Kind) bool {
	if err == nil {
		return false
	}
	return ftag.Get(err) == kind
}
