package main

import (
	"errors"

	"github.com/archicontribs/modelrepo/pkg/git"
	"github.com/archicontribs/modelrepo/pkg/repository"
	"github.com/archicontribs/modelrepo/pkg/vault"
)

// describeError renders a user-facing message from a typed error. The
// underlying detail goes to the log, not the terminal.
func describeError(err error) string {
	var gitErr *git.Error
	if errors.As(err, &gitErr) {
		return describeGitError(gitErr)
	}

	switch {
	case errors.Is(err, vault.ErrKeyDerivationFailed):
		return "could not derive the credential key on this machine"
	case errors.Is(err, vault.ErrDecryptFailed):
		return "stored credentials could not be read; set them again"
	case errors.Is(err, vault.ErrNotFound):
		return "no stored credentials for this repository"
	case errors.Is(err, repository.ErrInvalidRemoteURL):
		return "the remote URL is not valid"
	case errors.Is(err, repository.ErrIOFailure):
		return "the repository could not be read: " + err.Error()
	}
	return err.Error()
}

func describeGitError(e *git.Error) string {
	switch e.Kind {
	case git.NotEmpty:
		return "the target folder is not empty"
	case git.AuthFailed:
		return "authentication failed"
	case git.TransportFailed:
		switch {
		case e.Cancelled:
			return "operation cancelled"
		case e.Timeout:
			return "the remote did not respond in time"
		}
		return "the remote could not be reached"
	case git.NonFastForward:
		return "the remote has changes you do not have; fetch and merge them first"
	case git.NothingToCommit:
		return "nothing to commit, the working tree is clean"
	case git.Busy:
		return "another operation is running on this repository"
	case git.NotFound:
		return "not found"
	case git.IOFailure:
		return "a local file operation failed"
	default:
		if e.Detail != "" {
			return "git error: " + e.Detail
		}
		return "git error"
	}
}
