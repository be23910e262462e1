package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor for admin passwords.
const PasswordCost = 10

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
