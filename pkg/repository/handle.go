// Package repository classifies filesystem paths as managed model repositories.
//
// It only reads the filesystem. Every value it returns is derived from what is on
// disk at the time of the call and is never cached or persisted.
package repository

import (
	"errors"
	"path/filepath"
)

const (
	tracerName = "modelrepo"

	// MetadataDirName is the repository metadata marker directory.
	MetadataDirName = ".git"

	// ModelFileName is the serialized model kept inside the metadata directory.
	ModelFileName = "temp.archimate"

	// RemoteName is the single named remote registered for a managed repository.
	RemoteName = "origin"
)

var (
	// ErrIOFailure marks unexpected filesystem errors. Expected negative outcomes
	// such as "not a repository" are never reported through it.
	ErrIOFailure = errors.New("repository i/o failure")

	// ErrInvalidRemoteURL is returned when a remote URL has no usable path segment.
	ErrInvalidRemoteURL = errors.New("invalid remote url")
)

// Kind is the resolved state of a path.
type Kind int

const (
	// NotAPath means nothing exists at the path.
	NotAPath Kind = iota
	// NotAGitRepo means the path exists but carries no metadata marker.
	NotAGitRepo
	// GitRepoUnloaded means the path is a repository whose model is not open.
	GitRepoUnloaded
	// GitRepoLoaded means the path is a repository whose model is open in the registry.
	GitRepoLoaded
)

// String returns the kind name used in logs and CLI output.
func (k Kind) String() string {
	switch k {
	case NotAPath:
		return "not-a-path"
	case NotAGitRepo:
		return "not-a-git-repo"
	case GitRepoUnloaded:
		return "git-repo-unloaded"
	case GitRepoLoaded:
		return "git-repo-loaded"
	default:
		return "unknown"
	}
}

// IsRepository reports whether the kind carries the metadata marker.
func (k Kind) IsRepository() bool {
	return k == GitRepoUnloaded || k == GitRepoLoaded
}

// Handle identifies one managed local clone. It is an ephemeral view over the
// filesystem and should be recomputed after every mutating operation.
type Handle struct {
	// Path is the absolute working tree location.
	Path string

	// GitDir is the metadata directory inside Path.
	GitDir string

	// ModelFile is where the serialized model lives for this repository.
	ModelFile string

	// RemoteURL is the origin URL, empty when none is configured.
	RemoteURL string

	Kind Kind
}

// NewHandle builds a handle for path without touching the filesystem.
// The returned handle has Kind NotAPath until it is resolved.
func NewHandle(path string) Handle {
	abs := absPath(path)
	return Handle{
		Path:      abs,
		GitDir:    filepath.Join(abs, MetadataDirName),
		ModelFile: ModelFile(abs),
	}
}

// ModelFile returns the model file location for a repository path. It is a pure
// function of the path so that "is this repository's model open" is a lookup.
func ModelFile(repoPath string) string {
	return filepath.Join(absPath(repoPath), MetadataDirName, ModelFileName)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
