package credential

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateKey returns a fresh base64-encoded secretbox key suitable for
// CredentialKeyB64, for use by setup tooling.
func GenerateKey() (string, error) {
	raw := make([]byte, keySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("credential: generating key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
