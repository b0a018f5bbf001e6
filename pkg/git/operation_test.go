package git

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

func TestRunShowHistory(t *testing.T) {
	repoURL := setupLocalGitRepo(t)
	c := newTestClient(t, nil, Options{})
	h := cloneFixture(t, c, repoURL, "demo")

	out := c.Run(context.Background(), OperationRequest{Kind: OpShowHistory, Handle: h}, nil)
	if !out.Success || out.Err != nil {
		t.Fatalf("Run() = %+v, want success", out)
	}
	if len(out.History) != 1 || out.History[0].Message != "Initial commit" {
		t.Errorf("Run() history = %+v, want single initial commit", out.History)
	}
	if out.Handle.Kind != repository.GitRepoUnloaded {
		t.Errorf("Run() handle kind = %v, want %v", out.Handle.Kind, repository.GitRepoUnloaded)
	}
}

func TestRunCommitFailure(t *testing.T) {
	repoURL := setupLocalGitRepo(t)
	c := newTestClient(t, nil, Options{})
	h := cloneFixture(t, c, repoURL, "demo")

	out := c.Run(context.Background(), OperationRequest{Kind: OpCommit, Handle: h, Message: "nothing"}, nil)
	if out.Success {
		t.Fatalf("Run() = %+v, want failure", out)
	}
	if !errors.Is(out.Err, ErrNothingToCommit) {
		t.Errorf("Run() error = %v, want %v", out.Err, ErrNothingToCommit)
	}
	if out.Message == "" {
		t.Error("Run() message is empty on failure")
	}
}

func TestRunUnsupportedKind(t *testing.T) {
	c := newTestClient(t, nil, Options{})
	out := c.Run(context.Background(), OperationRequest{Kind: "rebase"}, nil)
	if out.Success || !errors.Is(out.Err, ErrUnknown) {
		t.Errorf("Run() = %+v, want unknown failure", out)
	}
}

func TestSubmitClone(t *testing.T) {
	repoURL := setupLocalGitRepo(t)
	c := newTestClient(t, nil, Options{})
	h := repository.NewHandle(filepath.Join(t.TempDir(), "demo"))

	ch := c.Submit(context.Background(), OperationRequest{Kind: OpClone, Handle: h, RemoteURL: repoURL}, &recordingSink{})

	select {
	case out, ok := <-ch:
		if !ok {
			t.Fatal("Submit() channel closed without an outcome")
		}
		if !out.Success {
			t.Fatalf("Submit() outcome = %+v, want success", out)
		}
		if out.Handle.Kind != repository.GitRepoUnloaded {
			t.Errorf("Submit() handle kind = %v, want %v", out.Handle.Kind, repository.GitRepoUnloaded)
		}
		if out.Handle.RemoteURL != repoURL {
			t.Errorf("Submit() remote = %q, want %q", out.Handle.RemoteURL, repoURL)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Submit() did not deliver an outcome")
	}

	if _, ok := <-ch; ok {
		t.Error("Submit() delivered more than one outcome")
	}
}

func TestFetchAll(t *testing.T) {
	repoURL := setupLocalGitRepo(t)
	c := newTestClient(t, nil, Options{})

	handles := []repository.Handle{
		cloneFixture(t, c, repoURL, "one"),
		cloneFixture(t, c, repoURL, "two"),
		repository.NewHandle(filepath.Join(t.TempDir(), "missing")),
	}

	outcomes := c.FetchAll(context.Background(), handles, nil)
	if len(outcomes) != len(handles) {
		t.Fatalf("FetchAll() returned %d outcomes, want %d", len(outcomes), len(handles))
	}
	for i := 0; i < 2; i++ {
		if !outcomes[i].Success {
			t.Errorf("FetchAll() outcome %d = %+v, want success", i, outcomes[i])
		}
	}
	if outcomes[2].Success || !errors.Is(outcomes[2].Err, ErrNotFound) {
		t.Errorf("FetchAll() outcome 2 = %+v, want not found", outcomes[2])
	}
	for i, out := range outcomes {
		if out.Kind != OpFetch {
			t.Errorf("FetchAll() outcome %d kind = %v, want %v", i, out.Kind, OpFetch)
		}
	}
}
