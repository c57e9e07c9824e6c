package utils

// Password hashing for registration and the bootstrap admin account;
// VerifyPassword backs the login form.

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of a new account's password using
// the BCRYPT_COST work factor.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  A
// malformed hash never matches, so a corrupt row cannot log anyone in.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
