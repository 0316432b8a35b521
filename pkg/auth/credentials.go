package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// EnvToken is the environment variable consulted last for an API token
const EnvToken = "EMOJIHARVEST_API_TOKEN"

// DefaultAccount is used when no account name is given
const DefaultAccount = "default"

// Credential is a bearer token for an emoji listing API
type Credential struct {
	Account      string    `json:"account"`
	Token        string    `json:"token"`
	BaseURL      string    `json:"base_url,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving API tokens
type TokenStore interface {
	// Store saves the credential under its account name
	Store(cred *Credential) error

	// Retrieve gets the credential for an account
	Retrieve(account string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential for an account
	Delete(account string) error

	// Exists reports whether a credential is stored for an account
	Exists(account string) bool
}

// Manager handles token storage with fallback across stores
type Manager struct {
	stores []TokenStore
}

// NewManager creates a manager backed by the system keyring when it is
// usable, an encrypted file in the config directory and the environment.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, tried in order
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Token == "" {
		return errors.New("token is required")
	}
	if cred.Account == "" {
		cred.Account = DefaultAccount
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(account string) (*Credential, error) {
	if account == "" {
		account = DefaultAccount
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(account); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for account: %s", ErrTokenNotFound, account)
}

// Token resolves the bearer token for an account. The environment
// variable wins when set so CI can override stored tokens.
func (m *Manager) Token(account string) (string, error) {
	if v := os.Getenv(EnvToken); v != "" {
		return v, nil
	}
	cred, err := m.Retrieve(account)
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

// List returns the credentials of all stores, newest version per account
func (m *Manager) List() ([]*Credential, error) {
	byAccount := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byAccount[cred.Account]; !ok || cred.LastModified.After(existing.LastModified) {
				byAccount[cred.Account] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byAccount))
	for _, cred := range byAccount {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Account < result[j].Account })
	return result, nil
}

// Delete removes the credential from every store
func (m *Manager) Delete(account string) error {
	if account == "" {
		account = DefaultAccount
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(account); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrTokenNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w for account: %s", ErrTokenNotFound, account)
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "emojiharvest")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "emojiharvest")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "emojiharvest")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "emojiharvest")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of the credential with the token masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	out := *cred
	out.Token = maskString(cred.Token)
	return &out
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrTokenNotFound     = errors.New("token not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrStoreUnavailable  = errors.New("token store unavailable")
)
