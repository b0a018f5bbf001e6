package actions

import (
	"reflect"
	"testing"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		kind repository.Kind
		want []Action
	}{
		{kind: repository.NotAPath, want: []Action{Clone}},
		{kind: repository.NotAGitRepo, want: []Action{Clone}},
		{kind: repository.GitRepoUnloaded, want: []Action{Clone, Open, Refresh, Remove}},
		{kind: repository.GitRepoLoaded, want: []Action{Clone, Refresh, Remove, Save, Commit, Push, ShowHistory}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := Enabled(tt.kind).List()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Enabled(%v) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestEnabledIsDeterministic(t *testing.T) {
	kinds := []repository.Kind{
		repository.NotAPath,
		repository.NotAGitRepo,
		repository.GitRepoUnloaded,
		repository.GitRepoLoaded,
		repository.Kind(99),
	}

	for _, kind := range kinds {
		first := Enabled(kind)
		for i := 0; i < 10; i++ {
			if got := Enabled(kind); got != first {
				t.Errorf("Enabled(%v) call %d = %v, want %v", kind, i, got, first)
			}
		}
		if !first.Has(Clone) {
			t.Errorf("Enabled(%v) lacks Clone", kind)
		}
	}
}

func TestEnabledWhileBusy(t *testing.T) {
	if got := EnabledWhile(repository.GitRepoLoaded, true); got != NewSet(Clone) {
		t.Errorf("EnabledWhile(loaded, busy) = %v, want clone", got)
	}
	if got := EnabledWhile(repository.GitRepoLoaded, false); got != Enabled(repository.GitRepoLoaded) {
		t.Errorf("EnabledWhile(loaded, idle) = %v, want %v", got, Enabled(repository.GitRepoLoaded))
	}
}

func TestSet(t *testing.T) {
	s := NewSet(Push, Clone, Push)

	if !s.Has(Clone) || !s.Has(Push) {
		t.Errorf("Has() false for members of %v", s)
	}
	if s.Has(Commit) {
		t.Errorf("Has(Commit) = true for %v", s)
	}
	if got := s.String(); got != "clone,push" {
		t.Errorf("String() = %q, want %q", got, "clone,push")
	}
	if got := NewSet().List(); got != nil {
		t.Errorf("empty List() = %v, want nil", got)
	}
}
