package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks hashes that no password can match.
const unusablePrefix = "!"

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnusablePassword returns a random marker for accounts created without a password.
func UnusablePassword() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return unusablePrefix + hex.EncodeToString(b)
}

func HasUsablePassword(hashed string) bool {
	return hashed != "" && !strings.HasPrefix(hashed, unusablePrefix)
}

func CheckPassword(pw, hashed string) bool {
	if !HasUsablePassword(hashed) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
