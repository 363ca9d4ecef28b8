package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "giddycycles"
	defaultAPIKeyUser    = "api_key"
	defaultDBKeyUser     = "db_key"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// LoadAPIKey loads the backend API key.
//
// Order of precedence:
// 1) GIDDYCYCLES_API_KEY environment variable.
// 2) System credential store item referenced by service/account.
func LoadAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("GIDDYCYCLES_API_KEY")); key != "" {
		return key, nil
	}

	key, err := loadFromKeyring(apiKeyAccount())
	if err != nil {
		return "", err
	}

	if key == "" {
		return "", errors.New("api key is empty")
	}

	return key, nil
}

// SaveAPIKey stores the API key in the system credential store.
func SaveAPIKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return errors.New("api key cannot be empty")
	}
	return saveToKeyring(apiKeyAccount(), trimmed)
}

// RemoveAPIKey deletes the stored API key. A missing item is not an error.
func RemoveAPIKey() error {
	return deleteFromKeyring(apiKeyAccount())
}

// HasStoredAPIKey reports whether the credential store holds an API key. The
// environment variable is ignored.
func HasStoredAPIKey() (bool, error) {
	key, err := keyringGet(secretService(), apiKeyAccount())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check keyring item: %w", err)
	}
	return strings.TrimSpace(key) != "", nil
}

func loadFromKeyring(account string) (string, error) {
	service := secretService()

	secret, err := keyringGet(service, account)
	if err != nil {
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}

	return strings.TrimSpace(secret), nil
}

func saveToKeyring(account, secret string) error {
	service := secretService()
	if err := keyringSet(service, account, secret); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

func deleteFromKeyring(account string) error {
	service := secretService()
	if err := keyringDelete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf(
			"failed to delete keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	return nil
}

func secretService() string {
	return envOrDefault("GIDDYCYCLES_KEYCHAIN_SERVICE", defaultSecretService)
}

func apiKeyAccount() string {
	return envOrDefault("GIDDYCYCLES_KEYCHAIN_ACCOUNT", defaultAPIKeyUser)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
