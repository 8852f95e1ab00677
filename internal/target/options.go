package target

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOption indicates a malformed or unsupported target option.
var ErrInvalidOption = errors.New("invalid target option")

// Option describes an option a target accepts.
type Option struct {
	Name        string
	Description string
}

// Options holds parsed target options. Flag-style options map to "".
type Options map[string]string

// Has reports whether the option was given.
func (o Options) Has(name string) bool {
	_, ok := o[name]
	return ok
}

// ParseOptions parses "key" or "key=value" options, rejecting any key not
// in accepted.
func ParseOptions(accepted []Option, raw []string) (Options, error) {
	known := make(map[string]bool, len(accepted))
	for _, opt := range accepted {
		known[opt.Name] = true
	}

	parsed := make(Options, len(raw))
	for _, opt := range raw {
		parts := strings.Split(opt, "=")
		if len(parts) > 2 {
			return nil, fmt.Errorf(`%w: %q must be "key" or "key=value"`, ErrInvalidOption, opt)
		}

		key := parts[0]
		if key == "" {
			return nil, fmt.Errorf("%w: option cannot be empty", ErrInvalidOption)
		}
		if !known[key] {
			return nil, fmt.Errorf("%w: target does not support %q", ErrInvalidOption, key)
		}

		value := ""
		if len(parts) == 2 {
			value = parts[1]
		}
		parsed[key] = value
	}
	return parsed, nil
}
