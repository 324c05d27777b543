package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// BcryptVerifier compares a candidate password against a stored bcrypt hash.
// Hash creation and storage are owned by the user-management collaborator;
// this core only ever verifies.
type BcryptVerifier struct{}

func NewBcryptVerifier() BcryptVerifier { return BcryptVerifier{} }

func (BcryptVerifier) Verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// HashPassword produces a bcrypt hash at the default cost. Used by the
// bundled user directory; external directories may store hashes however
// they like as long as Verify accepts them.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
