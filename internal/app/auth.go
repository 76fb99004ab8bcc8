package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const (
	DefaultAuthFile = "auth.secret"
	AuthRealm       = "Comedor Cocina"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var (
	ErrAuthFileExists  = errors.New("auth file already exists")
	ErrInvalidHash     = errors.New("invalid passphrase hash")
	ErrInvalidAuthFile = errors.New("invalid auth file format (expected: username:hash)")
)

// ChefAuth guards the kitchen views with Basic Auth. A zero ChefAuth has no
// credentials and lets every request through.
type ChefAuth struct {
	User string
	hash string
	log  *zap.Logger
}

// AuthFilePath returns AUTH_FILE if set, otherwise auth.secret next to the
// running binary.
func AuthFilePath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadChefAuth reads the kitchen credentials from path. A missing file is
// not an error: the kitchen views are then left open.
func LoadChefAuth(path string, log *zap.Logger) (*ChefAuth, error) {
	if log == nil {
		log = zap.NewNop()
	}
	auth := &ChefAuth{log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("no auth file found, kitchen views are unprotected (local development only)",
				zap.String("expected_file", path),
				zap.String("create_with", "meal-roster hash-passphrase"),
			)
			return auth, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	user, hash, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
	if !ok || user == "" || hash == "" {
		return nil, ErrInvalidAuthFile
	}
	auth.User = user
	auth.hash = hash

	log.Info("basic auth enabled for kitchen views", zap.String("user", user), zap.String("file", path))
	return auth, nil
}

// Enabled reports whether credentials were loaded.
func (a *ChefAuth) Enabled() bool {
	return a != nil && a.hash != ""
}

// Check verifies a username and passphrase.
func (a *ChefAuth) Check(user, pass string) bool {
	if !a.Enabled() {
		return true
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) == 1
	if !userMatch {
		return false
	}
	ok, err := VerifyPassphrase(pass, a.hash)
	if err != nil {
		a.log.Error("error verifying passphrase", zap.Error(err))
		return false
	}
	return ok
}

// Middleware enforces Basic Auth on next.
func (a *ChefAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !a.Check(user, pass) {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, AuthRealm))
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
			a.log.Warn("failed kitchen auth attempt", zap.String("remote_addr", r.RemoteAddr), zap.String("user", user))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassphrase creates an Argon2id hash in the PHC string format.
func HashPassphrase(passphrase string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassphrase checks passphrase against a hash made by HashPassphrase.
func VerifyPassphrase(passphrase, encoded string) (bool, error) {
	// $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("%w: expected 6 fields", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: not an argon2id hash", ErrInvalidHash)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}

	got := argon2.IDKey([]byte(passphrase), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// CreateAuthFile hashes passphrase and writes "user:hash" to path, read-only.
func CreateAuthFile(path, user, passphrase string, overwrite bool) error {
	if strings.Contains(user, ":") {
		return fmt.Errorf("username must not contain ':'")
	}
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrAuthFileExists, path)
		}
		// the file is 0400, so it has to go before we can write again
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassphrase(passphrase)
	if err != nil {
		return fmt.Errorf("failed to hash passphrase: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", user, hash)
	if err := os.WriteFile(path, []byte(content), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}
