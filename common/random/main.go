package random

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GetUUID generates a UUID and returns it as a string without hyphens.
func GetUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

const keyNumbers = "0123456789"

func randomFrom(alphabet string, length int) string {
	key := make([]byte, length)
	for i := range length {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		key[i] = alphabet[n.Int64()]
	}
	return string(key)
}

// GetRandomNumberString generates a random numeric string of the specified length.
func GetRandomNumberString(length int) string {
	return randomFrom(keyNumbers, length)
}
