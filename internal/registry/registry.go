// Package registry provides the command registry for gridctl.
//
// This package indexes the available sub-command plug-ins by canonical name
// and accepted short aliases, validates the registry configuration at
// discovery time, and resolves the first positional CLI argument to a
// descriptor. Descriptors are immutable once registered and live for the
// process lifetime.
package registry

import (
	"fmt"
	"sort"

	"github.com/gridhive-dev/gridctl/internal/command"
	"github.com/gridhive-dev/gridctl/internal/config"
	"github.com/gridhive-dev/gridctl/internal/logging"
)

// Factory constructs a command instance bound to the session logger, the
// resolved client configuration, and the CLI arguments remaining after the
// global options and the command token. Construction may fail (bad
// arguments, unusable configuration); such failures are classified by the
// failure translator like any other outcome.
type Factory func(sess *logging.Session, cfg *config.Config, args []string) (command.Command, error)

// Descriptor describes one installable sub-command: its canonical name, the
// short aliases it accepts, a one-line summary for the help text, and the
// factory that constructs it.
type Descriptor struct {
	Name    string
	Aliases []string
	Summary string
	New     Factory
}

// Index maps every canonical name and alias to its descriptor.
type Index map[string]*Descriptor

// Discover builds the command index from the given descriptors, enumerated
// once at process start. Names and aliases must be pairwise distinct across
// the whole registry; a duplicate is a configuration error reported here
// rather than silently shadowed, so ambiguity can never reach Resolve.
func Discover(descs []*Descriptor) (Index, error) {
	index := make(Index)

	for _, desc := range descs {
		if desc.Name == "" {
			return nil, fmt.Errorf("command descriptor with empty name")
		}
		if _, ok := index[desc.Name]; ok {
			return nil, fmt.Errorf("duplicate command name %q in registry", desc.Name)
		}
		index[desc.Name] = desc

		for _, alias := range desc.Aliases {
			if _, ok := index[alias]; ok {
				return nil, fmt.Errorf("duplicate command alias %q in registry", alias)
			}
			index[alias] = desc
		}
	}

	return index, nil
}

// Resolve returns the descriptor whose canonical name or alias equals token.
// The discovery-time uniqueness check guarantees at most one match.
func Resolve(index Index, token string) (*Descriptor, bool) {
	desc, ok := index[token]
	return desc, ok
}

// Names returns the canonical command names in sorted order for usage text.
func Names(index Index) []string {
	seen := make(map[string]bool)
	var names []string
	for _, desc := range index {
		if !seen[desc.Name] {
			seen[desc.Name] = true
			names = append(names, desc.Name)
		}
	}
	sort.Strings(names)
	return names
}
