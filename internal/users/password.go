package users

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	maxPasswordBytes = 72

	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptN          = 1 << 15
	werkzeugScryptR          = 8
	werkzeugScryptP          = 1
	werkzeugScryptKeyLen     = 64
)

func HashPassword(raw string, cost int) (string, error) {
	if len(raw) > maxPasswordBytes {
		return "", ErrInvalidPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks raw against a bcrypt hash, or against the
// "method$salt$hex" hashes written by werkzeug in older users.json files.
func VerifyPassword(stored, raw string) bool {
	switch {
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"), strings.HasPrefix(stored, "scrypt:"):
		return verifyWerkzeug(stored, raw)
	default:
		return false
	}
}

func verifyWerkzeug(stored, raw string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, expected := parts[0], parts[1], parts[2]

	derived, ok := deriveWerkzeug(method, salt, raw)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(derived)), []byte(expected)) == 1
}

func deriveWerkzeug(method, salt, raw string) ([]byte, bool) {
	args := strings.Split(method, ":")
	switch args[0] {
	case "pbkdf2":
		algorithm := "sha256"
		if len(args) > 1 {
			algorithm = args[1]
		}
		iterations := werkzeugPBKDF2Iterations
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil || parsed <= 0 {
				return nil, false
			}
			iterations = parsed
		}
		newHash, size := hashByName(algorithm)
		if newHash == nil {
			return nil, false
		}
		return pbkdf2.Key([]byte(raw), []byte(salt), iterations, size, newHash), true

	case "scrypt":
		params := []int{werkzeugScryptN, werkzeugScryptR, werkzeugScryptP}
		for idx := 1; idx < len(args) && idx <= len(params); idx++ {
			parsed, err := strconv.Atoi(args[idx])
			if err != nil || parsed <= 0 {
				return nil, false
			}
			params[idx-1] = parsed
		}
		derived, err := scrypt.Key([]byte(raw), []byte(salt), params[0], params[1], params[2], werkzeugScryptKeyLen)
		if err != nil {
			return nil, false
		}
		return derived, true
	}
	return nil, false
}

func hashByName(name string) (func() hash.Hash, int) {
	switch name {
	case "sha1":
		return sha1.New, sha1.Size
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	}
	return nil, 0
}
