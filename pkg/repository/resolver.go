package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// scanConcurrency bounds how many directories Scan resolves at once.
const scanConcurrency = 8

// Resolver classifies paths. The zero value is not usable; use NewResolver.
type Resolver struct {
	fs       afero.Fs
	registry Registry
}

// NewResolver creates a resolver reading from fs. A nil fs means the OS
// filesystem; a nil registry means no model is ever considered open.
func NewResolver(fs afero.Fs, registry Registry) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{
		fs:       fs,
		registry: registry,
	}
}

// Classify returns the kind of path. Only unexpected filesystem errors are
// returned as errors, wrapped with ErrIOFailure.
func (r *Resolver) Classify(ctx context.Context, path string) (Kind, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "repository.Classify")
	defer span.End()

	kind, err := r.classify(absPath(path))
	if err != nil {
		span.RecordError(err)
		return NotAPath, err
	}

	span.SetAttributes(
		attribute.String("repository.path", path),
		attribute.String("repository.kind", kind.String()),
	)
	return kind, nil
}

func (r *Resolver) classify(path string) (Kind, error) {
	info, err := r.fs.Stat(path)
	if os.IsNotExist(err) {
		return NotAPath, nil
	}
	if err != nil {
		return NotAPath, fmt.Errorf("%w: stat %s: %w", ErrIOFailure, path, err)
	}
	if !info.IsDir() {
		return NotAGitRepo, nil
	}

	isDir, err := afero.DirExists(r.fs, filepath.Join(path, MetadataDirName))
	if err != nil {
		return NotAPath, fmt.Errorf("%w: stat metadata in %s: %w", ErrIOFailure, path, err)
	}
	if !isDir {
		return NotAGitRepo, nil
	}

	if r.registry != nil && r.registry.IsOpen(ModelFile(path)) {
		return GitRepoLoaded, nil
	}
	return GitRepoUnloaded, nil
}

// Resolve classifies path and fills in a full handle, including the origin
// URL when the path is a repository.
func (r *Resolver) Resolve(ctx context.Context, path string) (Handle, error) {
	h := NewHandle(path)

	kind, err := r.Classify(ctx, h.Path)
	if err != nil {
		return h, err
	}
	h.Kind = kind

	if kind.IsRepository() {
		url, ok, err := r.RemoteURL(ctx, h.Path)
		if err != nil {
			return h, err
		}
		if ok {
			h.RemoteURL = url
		}
	}
	return h, nil
}

// Scan resolves every immediate subdirectory of root that is a repository,
// sorted by path. A missing root yields no handles.
func (r *Resolver) Scan(ctx context.Context, root string) ([]Handle, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "repository.Scan")
	defer span.End()

	span.SetAttributes(attribute.String("repository.root", root))

	entries, err := afero.ReadDir(r.fs, root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: read %s: %w", ErrIOFailure, root, err)
	}

	handles := make([]Handle, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	for i, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		g.Go(func() error {
			h, err := r.Resolve(gctx, path)
			if err != nil {
				return err
			}
			handles[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	repos := make([]Handle, 0, len(handles))
	for _, h := range handles {
		if h.Kind.IsRepository() {
			repos = append(repos, h)
		}
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })

	span.SetAttributes(attribute.Int("repository.count", len(repos)))
	return repos, nil
}
