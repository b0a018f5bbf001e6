package git

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

// CommitSummary describes one commit in a repository's history.
type CommitSummary struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
	Message string    `json:"message"`
}

// Subject returns the first line of the commit message.
func (s CommitSummary) Subject() string {
	subject, _, _ := strings.Cut(s.Message, "\n")
	return strings.TrimSpace(subject)
}

// ListHistory returns the commits reachable from HEAD, most recent first.
// A repository without commits has an empty history.
func (c *ClientImpl) ListHistory(ctx context.Context, h repository.Handle) ([]CommitSummary, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.ListHistory")
	defer span.End()

	h = normalize(h)
	span.SetAttributes(attribute.String("git.path", h.Path))

	release, err := c.lock(opHistory, h.Path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	repo, err := c.open(ctx, opHistory, h.Path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []CommitSummary{}, nil
	}
	if err != nil {
		err := classifyError(ctx, opHistory, h.Path, err)
		span.RecordError(err)
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		err := classifyError(ctx, opHistory, h.Path, err)
		span.RecordError(err)
		return nil, err
	}
	defer iter.Close()

	summaries := []CommitSummary{}
	err = iter.ForEach(func(commit *object.Commit) error {
		summaries = append(summaries, CommitSummary{
			Hash:    commit.Hash.String(),
			Author:  commit.Author.Name,
			Email:   commit.Author.Email,
			When:    commit.Author.When,
			Message: strings.TrimRight(commit.Message, "\n"),
		})
		return nil
	})
	if err != nil {
		err := classifyError(ctx, opHistory, h.Path, err)
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("git.commits", len(summaries)))
	return summaries, nil
}

// ReadFileAtRevision returns the content of relativePath as of revision.
// An empty revision means HEAD.
func (c *ClientImpl) ReadFileAtRevision(ctx context.Context, h repository.Handle, relativePath, revision string) ([]byte, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.ReadFileAtRevision")
	defer span.End()

	h = normalize(h)
	if revision == "" {
		revision = "HEAD"
	}
	span.SetAttributes(
		attribute.String("git.path", h.Path),
		attribute.String("git.file", relativePath),
		attribute.String("git.revision", revision),
	)

	release, err := c.lock(opRead, h.Path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	repo, err := c.open(ctx, opRead, h.Path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		err := newError(NotFound, opRead, h.Path, err)
		span.RecordError(err)
		return nil, err
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		err := newError(NotFound, opRead, h.Path, err)
		span.RecordError(err)
		return nil, err
	}

	file, err := commit.File(filepath.ToSlash(filepath.Clean(relativePath)))
	if err != nil {
		err := newError(NotFound, opRead, h.Path, err)
		span.RecordError(err)
		return nil, err
	}

	reader, err := file.Reader()
	if err != nil {
		err := classifyError(ctx, opRead, h.Path, err)
		span.RecordError(err)
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		err := newError(IOFailure, opRead, h.Path, err)
		span.RecordError(err)
		return nil, err
	}
	return data, nil
}
