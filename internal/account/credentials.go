package account

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password alphabet excludes 0/O and 1/I so printed credentials survive
// being read off paper.
const passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const passwordLength = 8

func GeneratePassword() (string, error) {
	buf := make([]byte, passwordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = passwordChars[int(buf[i])%len(passwordChars)]
	}
	return string(buf), nil
}

// GenerateLogin builds a group-scoped login like "TURK-101-001".
func GenerateLogin(groupName string, num int) string {
	return fmt.Sprintf("%s-%03d", groupName, num)
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
