package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	gsheet "google.golang.org/api/sheets/v4"
)

const installedClient = `{"installed":{"client_id":"cid","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(installedClient), "http://localhost:8085/callback")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "cid" || cfg.RedirectURL != "http://localhost:8085/callback" {
		t.Errorf("config = %+v", cfg)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != gsheet.SpreadsheetsScope {
		t.Errorf("scopes = %v", cfg.Scopes)
	}
	if _, err := OAuthConfig([]byte(`{}`), ""); err == nil {
		t.Error("expected error for empty client")
	}
}

func TestReadClientCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte("from-file"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name, inline, path, want string
		wantErr                  bool
	}{
		{name: "inline wins", inline: "inline", path: path, want: "inline"},
		{name: "file", path: path, want: "from-file"},
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.json"), wantErr: true},
		{name: "nothing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ReadClientCredentials(tt.inline, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("got %q, want %q", b, tt.want)
			}
		})
	}
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := SaveToken(path, &oauth2.Token{RefreshToken: "r1", TokenType: "Bearer"}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	tok, err := LoadToken(path)
	if err != nil || tok.RefreshToken != "r1" {
		t.Fatalf("token = %+v, err = %v", tok, err)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(empty, []byte(`{}`), 0600)
	if _, err := LoadToken(empty); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestNew_OAuthTokenWithoutClient(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", OAuthTokenFile: "token.json"})
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_OAUTH_CLIENT_JSON") {
		t.Fatalf("err = %v", err)
	}
}
