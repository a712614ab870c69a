package accountsim

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errEmptyPassword = errors.New("password must not be empty")

// hashPassword generates a bcrypt hash with the given cost
func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// passwordMatches reports whether password is the cleartext of hash
func passwordMatches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
