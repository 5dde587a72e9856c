package gitsource

import (
	"path/filepath"
	"testing"
)

func TestIsGitURL(t *testing.T) {
	testCases := []struct {
		source string
		want   bool
	}{
		{"https://github.com/user/decks.git", true},
		{"http://example.com/decks", true},
		{"git@github.com:user/decks.git", true},
		{"ssh://git@example.com/decks.git", true},
		{"./decks", false},
		{"/home/me/decks", false},
		{"decks.git", false},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			if got := IsGitURL(tc.source); got != tc.want {
				t.Errorf("IsGitURL(%q) = %v, want %v", tc.source, got, tc.want)
			}
		})
	}
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://github.com/user/decks.git", want: filepath.Join("repos", "github.com", "user", "decks")},
		{url: "git@github.com:user/decks.git", want: filepath.Join("repos", "github.com", "user", "decks")},
		{url: "https://example.com/a/../../etc", wantErr: true},
		{url: "git@github.com:../../../tmp/evil.git", wantErr: true},
		{url: "https://../x.git", wantErr: true},
		{url: "git@..:x.git", wantErr: true},
		{url: "not a url", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got path %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("LocalPath(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
