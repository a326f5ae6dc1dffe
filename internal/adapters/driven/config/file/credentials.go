package file

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsProvider = (*CredentialsStore)(nil)

// credentialsFilePerm keeps stored logins readable by the owner only.
const credentialsFilePerm = 0600

// CredentialsStore holds portal logins in credentials.toml, one
// [credentials.<source-id>] table per source.
type CredentialsStore struct {
	mu   sync.RWMutex
	path string
	data credentialsFile
}

type credentialsFile struct {
	Credentials map[string]domain.Credentials `toml:"credentials"`
}

// NewCredentialsStore opens the credentials file. A missing file is not an
// error; it is created on the first Set.
func NewCredentialsStore(path string) (*CredentialsStore, error) {
	s := &CredentialsStore{
		path: path,
		data: credentialsFile{Credentials: make(map[string]domain.Credentials)},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	if err := toml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if s.data.Credentials == nil {
		s.data.Credentials = make(map[string]domain.Credentials)
	}
	return s, nil
}

// Credentials returns the stored login for a source.
func (s *CredentialsStore) Credentials(sourceID string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.data.Credentials[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: no credentials for source %q", domain.ErrNotFound, sourceID)
	}
	return &creds, nil
}

// Set stores a login and persists the file with owner-only permissions.
func (s *CredentialsStore) Set(sourceID string, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Credentials[sourceID] = creds

	raw, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(s.path, raw, credentialsFilePerm); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
