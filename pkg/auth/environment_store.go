package auth

import (
	"os"
	"time"
)

// EnvironmentStore is a read-only TokenStore over EMOJIHARVEST_API_TOKEN.
// It answers for any account name.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(account string) (*Credential, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil, ErrTokenNotFound
	}
	if account == "" {
		account = DefaultAccount
	}
	return &Credential{
		Account:      account,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(account string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(account string) bool {
	return os.Getenv(EnvToken) != ""
}
