package repository

import (
	"errors"
	"strings"
	"testing"
)

func TestLocalFolderName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "https with suffix", url: "https://githosting.org/path/archi-demo-grafico.git", want: "archi-demo-grafico"},
		{name: "ssh without suffix", url: "ssh://githosting.org/path/archi-demo-grafico", want: "archi-demo-grafico"},
		{name: "upper case is lowered", url: "ssh://githosting.org/This_One", want: "this_one"},
		{name: "trailing slash", url: "https://example.org/models/demo.git/", want: "demo"},
		{name: "upper case suffix", url: "https://example.org/models/Demo.GIT", want: "demo"},
		{name: "scp-like", url: "git@github.com:org/Models.git", want: "models"},
		{name: "file url", url: "file:///srv/git/demo.git", want: "demo"},
		{name: "dots inside name", url: "https://example.org/my.model.repo.git", want: "my.model.repo"},
		{name: "no path segment", url: "https://example.org", wantErr: true},
		{name: "root path only", url: "https://example.org/", wantErr: true},
		{name: "only suffix", url: "https://example.org/.git", wantErr: true},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "demo.git", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocalFolderName(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRemoteURL) {
					t.Errorf("LocalFolderName(%q) error = %v, want ErrInvalidRemoteURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalFolderName(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("LocalFolderName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestLocalFolderNameStable(t *testing.T) {
	names := []string{"demo", "Archi-Demo", "This_One", "x", "model.v2"}
	schemes := []string{"https://", "ssh://"}

	for _, scheme := range schemes {
		for _, name := range names {
			withSuffix, err := LocalFolderName(scheme + "host/" + name + ".git")
			if err != nil {
				t.Fatalf("LocalFolderName() unexpected error: %v", err)
			}
			withoutSuffix, err := LocalFolderName(scheme + "host/" + name)
			if err != nil {
				t.Fatalf("LocalFolderName() unexpected error: %v", err)
			}
			if withSuffix != withoutSuffix {
				t.Errorf("LocalFolderName() differs with suffix: %q vs %q", withSuffix, withoutSuffix)
			}
			if withSuffix != strings.ToLower(withSuffix) || strings.HasSuffix(withSuffix, ".git") {
				t.Errorf("LocalFolderName() = %q, want lower-case without .git", withSuffix)
			}

			again, err := LocalFolderName(scheme + "host/" + withSuffix)
			if err != nil {
				t.Fatalf("LocalFolderName() unexpected error: %v", err)
			}
			if again != withSuffix {
				t.Errorf("LocalFolderName() not idempotent: %q then %q", withSuffix, again)
			}
		}
	}
}
