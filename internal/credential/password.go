package credential

import "golang.org/x/crypto/bcrypt"

// hashSecret returns the bcrypt hash of plain using the given cost.
func hashSecret(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// secretMatches compares a bcrypt hash and a plaintext secret in constant time.
func secretMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
