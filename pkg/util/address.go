package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/gagliardetto/solana-go"
)

func ParsePublicKey(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: invalid address %q: %v", auction.ErrInvalidInput, s, err)
	}
	return key, nil
}

// ParsePrivateKey accepts a path to a solana keygen file, a comma separated list of the 64 secret bytes
// or the base58 encoded secret.
func ParsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: missing secret", auction.ErrInvalidInput)
	}
	if _, err := os.Stat(s); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auction.ErrInvalidInput, err)
		}
		return key, nil
	}
	if strings.Contains(s, ",") {
		return parseByteList(strings.Trim(s, "[]"))
	}
	key, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secret: %v", auction.ErrInvalidInput, err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("%w: secret must be 64 bytes, got %d", auction.ErrInvalidInput, len(key))
	}
	return key, nil
}

func parseByteList(s string) (solana.PrivateKey, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 64 {
		return nil, fmt.Errorf("%w: secret must be 64 bytes, got %d", auction.ErrInvalidInput, len(parts))
	}
	key := make(solana.PrivateKey, 64)
	for i, part := range parts {
		b, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid secret byte %q", auction.ErrInvalidInput, part)
		}
		key[i] = byte(b)
	}
	return key, nil
}
