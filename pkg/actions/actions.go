// Package actions maps a repository's state to the user actions that are
// valid for it.
package actions

import (
	"strings"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

// Action is a user-triggerable operation on a repository.
type Action uint16

const (
	Clone Action = 1 << iota
	Open
	Refresh
	Remove
	Save
	Commit
	Push
	ShowHistory
)

// all lists every action in display order.
var all = []Action{Clone, Open, Refresh, Remove, Save, Commit, Push, ShowHistory}

func (a Action) String() string {
	switch a {
	case Clone:
		return "clone"
	case Open:
		return "open"
	case Refresh:
		return "refresh"
	case Remove:
		return "remove"
	case Save:
		return "save"
	case Commit:
		return "commit"
	case Push:
		return "push"
	case ShowHistory:
		return "show-history"
	default:
		return "unknown"
	}
}

// Set is a set of actions.
type Set uint16

// NewSet returns the set holding actions.
func NewSet(actions ...Action) Set {
	var s Set
	for _, a := range actions {
		s |= Set(a)
	}
	return s
}

// Has reports whether a is in the set.
func (s Set) Has(a Action) bool {
	return s&Set(a) != 0
}

// List returns the actions in the set in display order.
func (s Set) List() []Action {
	var out []Action
	for _, a := range all {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(all))
	for _, a := range s.List() {
		names = append(names, a.String())
	}
	return strings.Join(names, ",")
}

var (
	noRepository = NewSet(Clone)
	unloaded     = NewSet(Clone, Open, Refresh, Remove)
	loaded       = NewSet(Clone, Refresh, Remove, Save, Commit, Push, ShowHistory)
)

// Enabled returns the actions valid for a repository of the given kind.
// Clone is always enabled. The result depends on kind alone.
func Enabled(kind repository.Kind) Set {
	switch kind {
	case repository.GitRepoUnloaded:
		return unloaded
	case repository.GitRepoLoaded:
		return loaded
	default:
		return noRepository
	}
}

// EnabledWhile is Enabled with every action except Clone withheld while an
// operation is in flight on the repository.
func EnabledWhile(kind repository.Kind, busy bool) Set {
	if busy {
		return NewSet(Clone)
	}
	return Enabled(kind)
}
