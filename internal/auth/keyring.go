// Package auth persists the backend session in the system keyring.
package auth

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/nadav-o/sipurim/internal/catalog"
)

const (
	service   = "sipurim"
	tokenUser = "access-token"
	idUser    = "user-id"
)

// SetSession persists a signed-in session.
func SetSession(s catalog.Session) error {
	if err := keyring.Set(service, tokenUser, s.AccessToken); err != nil {
		return err
	}
	return keyring.Set(service, idUser, s.UserID)
}

// Session retrieves the stored session, or nil when signed out. Keyring
// absence is a normal state, never an error to callers.
func Session() *catalog.Session {
	token, err := keyring.Get(service, tokenUser)
	if err != nil {
		return nil
	}
	id, err := keyring.Get(service, idUser)
	if err != nil {
		return nil
	}
	if token == "" || id == "" {
		return nil
	}
	return &catalog.Session{AccessToken: token, UserID: id}
}

// Clear signs the user out locally.
func Clear() error {
	errToken := keyring.Delete(service, tokenUser)
	errID := keyring.Delete(service, idUser)
	if errToken != nil && !errors.Is(errToken, keyring.ErrNotFound) {
		return errToken
	}
	if errID != nil && !errors.Is(errID, keyring.ErrNotFound) {
		return errID
	}
	return nil
}
