package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestLocalRedirectURL(t *testing.T) {
	cases := map[string]string{
		"urn:ietf:wg:oauth:2.0:oob":      "http://localhost:6789/oauth2callback",
		"":                               "http://localhost:6789/oauth2callback",
		"http://localhost":               "http://localhost:6789",
		"http://127.0.0.1:8080/callback": "http://127.0.0.1:6789/callback",
		"http://localhost:6789/cb":       "http://localhost:6789/cb",
		"https://example.com/cb":         "https://example.com/cb",
	}
	for in, want := range cases {
		if got := localRedirectURL(in); got != want {
			t.Errorf("localRedirectURL(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := saveToken(path, tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected token file mode 0600, got %v", info.Mode().Perm())
	}

	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("Expected %+v, got %+v", tok, got)
	}
}

func TestRemoveTokenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := RemoveToken(); err != nil {
		t.Errorf("Expected no error removing a missing token, got %v", err)
	}
}
