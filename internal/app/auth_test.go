package app

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashPassphrase(t *testing.T) {
	hash, err := HashPassphrase("cocina-2025")
	if err != nil {
		t.Fatalf("HashPassphrase() failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}

	hash2, err := HashPassphrase("cocina-2025")
	if err != nil {
		t.Fatalf("HashPassphrase() failed on second call: %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same passphrase should use different salts")
	}
}

func TestVerifyPassphrase(t *testing.T) {
	hash, err := HashPassphrase("cocina-2025")
	if err != nil {
		t.Fatalf("HashPassphrase() failed: %v", err)
	}

	tests := []struct {
		name       string
		passphrase string
		hash       string
		want       bool
		wantErr    bool
	}{
		{"correct passphrase", "cocina-2025", hash, true, false},
		{"wrong passphrase", "cocina-2024", hash, false, false},
		{"empty passphrase", "", hash, false, false},
		{"invalid hash format", "cocina-2025", "invalid", false, true},
		{"wrong algorithm", "cocina-2025", "$bcrypt$v=1$m=65536,t=1,p=4$salt$hash", false, true},
		{"bad salt encoding", "cocina-2025", "$argon2id$v=19$m=65536,t=1,p=4$!!!$AAAA", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassphrase(tt.passphrase, tt.hash)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyPassphrase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidHash) {
				t.Errorf("VerifyPassphrase() error = %v, want ErrInvalidHash", err)
			}
			if got != tt.want {
				t.Errorf("VerifyPassphrase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateAuthFile(t *testing.T) {
	authFile := filepath.Join(t.TempDir(), DefaultAuthFile)

	t.Run("create new file", func(t *testing.T) {
		if err := CreateAuthFile(authFile, "chef", "cocina-2025", false); err != nil {
			t.Fatalf("CreateAuthFile() failed: %v", err)
		}

		info, err := os.Stat(authFile)
		if err != nil {
			t.Fatalf("failed to stat auth file: %v", err)
		}
		if info.Mode().Perm() != 0400 {
			t.Errorf("expected file mode 0400, got %o", info.Mode().Perm())
		}

		content, err := os.ReadFile(authFile)
		if err != nil {
			t.Fatalf("failed to read auth file: %v", err)
		}
		user, hash, ok := strings.Cut(strings.TrimSpace(string(content)), ":")
		if !ok || user != "chef" {
			t.Fatalf("auth file should contain chef:hash, got %q", content)
		}
		match, err := VerifyPassphrase("cocina-2025", hash)
		if err != nil || !match {
			t.Errorf("stored hash does not verify: match=%v err=%v", match, err)
		}
	})

	t.Run("existing file without overwrite", func(t *testing.T) {
		err := CreateAuthFile(authFile, "other", "x", false)
		if !errors.Is(err, ErrAuthFileExists) {
			t.Errorf("CreateAuthFile() error = %v, want ErrAuthFileExists", err)
		}
	})

	t.Run("overwrite with flag", func(t *testing.T) {
		if err := CreateAuthFile(authFile, "jefa", "nueva-clave", true); err != nil {
			t.Fatalf("CreateAuthFile() with overwrite failed: %v", err)
		}
		content, _ := os.ReadFile(authFile)
		if !strings.HasPrefix(string(content), "jefa:") {
			t.Error("file should be overwritten with the new username")
		}
	})

	t.Run("colon in username", func(t *testing.T) {
		if err := CreateAuthFile(filepath.Join(t.TempDir(), "x"), "a:b", "x", false); err == nil {
			t.Error("expected an error for a username containing ':'")
		}
	})
}

func TestLoadChefAuth(t *testing.T) {
	tests := []struct {
		name        string
		content     *string
		wantUser    string
		wantErr     bool
		wantEnabled bool
	}{
		{"valid auth file", strPtr("chef:" + mustHash(t, "cocina-2025")), "chef", false, true},
		{"file not present", nil, "", false, false},
		{"missing colon", strPtr("invalidformat"), "", true, false},
		{"empty file", strPtr(""), "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultAuthFile)
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0600); err != nil {
					t.Fatalf("setup failed: %v", err)
				}
			}

			auth, err := LoadChefAuth(path, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadChefAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if auth.User != tt.wantUser {
				t.Errorf("User = %q, want %q", auth.User, tt.wantUser)
			}
			if auth.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", auth.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestChefAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
	enabled := &ChefAuth{User: "chef", hash: mustHash(t, "cocina-2025")}
	basic := func(user, pass string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	}

	tests := []struct {
		name           string
		auth           *ChefAuth
		authHeader     string
		expectedStatus int
	}{
		{"valid credentials", enabled, basic("chef", "cocina-2025"), http.StatusOK},
		{"invalid passphrase", enabled, basic("chef", "wrong"), http.StatusUnauthorized},
		{"invalid username", enabled, basic("intruso", "cocina-2025"), http.StatusUnauthorized},
		{"no auth header", enabled, "", http.StatusUnauthorized},
		{"dev mode", &ChefAuth{}, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/roster/week", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			tt.auth.Middleware(next).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				if w.Header().Get("WWW-Authenticate") == "" {
					t.Error("expected WWW-Authenticate header on 401")
				}
				if !strings.Contains(w.Body.String(), ErrUnauthorized) {
					t.Errorf("unexpected body %q", w.Body.String())
				}
			}
		})
	}
}

func TestArgon2idParameters(t *testing.T) {
	if argon2Memory < 64*1024 {
		t.Error("Argon2id memory should be at least 64MB")
	}
	if argon2Time < 1 || argon2Threads < 1 {
		t.Error("Argon2id time and threads should be at least 1")
	}
	if argon2KeyLen < 32 || saltLen < 16 {
		t.Error("Argon2id key should be at least 32 bytes and salt at least 16")
	}
}

func mustHash(t *testing.T, passphrase string) string {
	t.Helper()
	hash, err := HashPassphrase(passphrase)
	if err != nil {
		t.Fatalf("HashPassphrase() failed: %v", err)
	}
	return hash
}

func strPtr(s string) *string { return &s }
