package auth

import (
	"chat-relay/errors"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Define Argon2 parameters based on OWASP/CNIL recommendations
const (
	Memory      = 64 * 1024 // 64 MB
	Iterations  = 3
	Parallelism = 2
	SaltLength  = 16
	KeyLength   = 32
)

// HashPassword generates a secure Argon2id hash from a plain text password.
// The returned string embeds every parameter needed by ComparePassword.
func HashPassword(password string) (string, error) {
	// 1. Generate a random salt
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	// 2. Generate the hash
	hash := argon2.IDKey([]byte(password), salt, Iterations, Memory, Parallelism, KeyLength)

	// 3. Format the result for storage (encoded in base64)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// We return a string containing all the metadata needed for verification
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, Memory, Iterations, Parallelism, b64Salt, b64Hash), nil
}

// ComparePassword compares a plain text password with a stored hash
func ComparePassword(password, encodedHash string) (bool, error) {
	// 1. Parse the encoded hash: $argon2id$v=19$m=65536,t=3,p=2$salt$hash
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: invalid hash format", errors.ErrInvalidCredentials)
	}

	var version, memory, iterations, parallelism int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: invalid hash version", errors.ErrInvalidCredentials)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported argon2 version %d", errors.ErrInvalidCredentials, version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: invalid hash parameters", errors.ErrInvalidCredentials)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	// 2. Re-hash the password with the same parameters
	comparisonHash := argon2.IDKey([]byte(password), salt, uint32(iterations), uint32(memory), uint8(parallelism), uint32(len(decodedHash)))

	// 3. Constant time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return true, nil
	}

	return false, nil
}
