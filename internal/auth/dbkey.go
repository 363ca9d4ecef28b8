package auth

import (
	"errors"
	"strings"
)

// LoadDBKey returns the local database encryption key. The key never leaves
// the credential store except to open the database.
func LoadDBKey() (string, error) {
	key, err := loadFromKeyring(defaultDBKeyUser)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.New("db key is empty")
	}
	return key, nil
}

func SaveDBKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return errors.New("db key cannot be empty")
	}
	return saveToKeyring(defaultDBKeyUser, trimmed)
}

// RemoveDBKey forgets the database key. The encrypted database becomes
// unreadable, so callers wipe the files as well.
func RemoveDBKey() error {
	return deleteFromKeyring(defaultDBKeyUser)
}
