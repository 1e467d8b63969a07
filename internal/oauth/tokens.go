// Package oauth manages the WHOOP OAuth token lifecycle: the authorization
// code flow, persisted tokens, and refresh.
package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokensFile is the token file name inside the data directory.
const TokensFile = "whoop_tokens.json"

// ErrNoTokens is returned when no tokens have been saved yet.
var ErrNoTokens = errors.New("no WHOOP tokens found, run 'lastsignal whoop-auth' first")

// Token is a persisted access/refresh token pair.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// ExpiresWithin reports whether the token expires before now+d.
func (t Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !t.ExpiresAt.After(now.Add(d))
}

// Store reads and writes tokens as JSON.
type Store struct {
	path string
}

// NewStore creates a store for the token file in dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, TokensFile)}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// ModTime returns the token file's modification time, or the zero time when
// the file does not exist.
func (s *Store) ModTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stat tokens: %w", err)
	}
	return info.ModTime(), nil
}

// Load reads the saved token.
func (s *Store) Load() (Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Token{}, ErrNoTokens
	}
	if err != nil {
		return Token{}, fmt.Errorf("read tokens: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, fmt.Errorf("parse tokens file %s: %w", s.path, err)
	}
	return tok, nil
}

// Save replaces the token file (write-to-temp + rename).
func (s *Store) Save(tok Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
