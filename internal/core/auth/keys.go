package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IssuedKey is a newly created API key. Key is shown once and never stored.
type IssuedKey struct {
	APIKeyID string
	ClientID string
	Key      string
}

// IssueKey generates a key signed with the given secret and stores its hash.
func IssueKey(ctx context.Context, queries Queries, secretID string, secret []byte, clientID, name string) (*IssuedKey, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client ID required")
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	key := FormatAPIKey(secretID, hex.EncodeToString(random))

	id := uuid.Must(uuid.NewV7()).String()
	_, err := queries.Exec(ctx, "insert-api-key",
		id,
		clientID,
		name,
		secretID,
		ComputeHMAC(secret, key),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("store key: %w", err)
	}

	return &IssuedKey{APIKeyID: id, ClientID: clientID, Key: key}, nil
}

// RevokeKey marks a key revoked. Revoking twice is a no-op.
func RevokeKey(ctx context.Context, queries Queries, apiKeyID string) error {
	if _, err := queries.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("revoke key %s: %w", apiKeyID, err)
	}
	return nil
}

// PickSecret returns the lexically greatest secret ID. UUIDv7 secret IDs sort
// by creation time, so this is the newest secret during rotation.
func PickSecret(secrets map[string][]byte) (string, []byte, bool) {
	var best string
	for id := range secrets {
		if id > best {
			best = id
		}
	}
	if best == "" {
		return "", nil, false
	}
	return best, secrets[best], true
}
