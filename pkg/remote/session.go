package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// Session is a signed-in user of the mirror.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// SessionFromToken reads the user id from the token's "id" claim. The signature
// is not checked here; the mirror verifies it on every call.
func SessionFromToken(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrNotAuthenticated)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed token: %w", ErrNotAuthenticated, err)
	}

	s := &Session{Token: token}
	if id, ok := claims["id"].(string); ok {
		s.UserID = id
	}
	return s, nil
}

// LoadSession reads a saved session. A missing file means signed out (nil, nil).
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file '%s': %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file '%s': %w", path, err)
	}
	if s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

// SaveSession writes s to path, readable by the owner only.
func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory for session file: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file '%s': %w", path, err)
	}
	// WriteFile only applies the mode when it creates the file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict session file '%s': %w", path, err)
	}
	return nil
}

// ClearSession removes the saved session, if any.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file '%s': %w", path, err)
	}
	return nil
}
