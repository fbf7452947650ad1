package ledger

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	TokenAccountSize = 165
	MintSize         = 82
)

// Token account states.
const (
	TokenAccountUninitialized uint8 = iota
	TokenAccountInitialized
	TokenAccountFrozen
)

// TokenAccount is the SPL token account layout.
type TokenAccount struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       [4]byte
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       [4]byte
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption [4]byte
	CloseAuthority       solana.PublicKey
}

// Mint is the SPL mint layout.
type Mint struct {
	MintAuthorityOption   [4]byte
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption [4]byte
	FreezeAuthority       solana.PublicKey
}

// ParseTokenAccount decodes an account owned by the token program.
func ParseTokenAccount(account Account) (TokenAccount, error) {
	if !account.Owner.Equals(solana.TokenProgramID) {
		return TokenAccount{}, fmt.Errorf("account %v is owned by %v, not the token program", account.Address, account.Owner)
	}
	if len(account.Data) != TokenAccountSize {
		return TokenAccount{}, fmt.Errorf("token account %v: expect %d bytes, got %d", account.Address, TokenAccountSize, len(account.Data))
	}
	var tokenAccount TokenAccount
	if err := bin.NewBinDecoder(account.Data).Decode(&tokenAccount); err != nil {
		return TokenAccount{}, fmt.Errorf("token account %v: %w", account.Address, err)
	}
	if tokenAccount.State == TokenAccountUninitialized {
		return TokenAccount{}, fmt.Errorf("token account %v is not initialized", account.Address)
	}
	return tokenAccount, nil
}

func (tokenAccount TokenAccount) Bytes() []byte {
	return encode(&tokenAccount, TokenAccountSize)
}

func ParseMint(account Account) (Mint, error) {
	if len(account.Data) != MintSize {
		return Mint{}, fmt.Errorf("mint %v: expect %d bytes, got %d", account.Address, MintSize, len(account.Data))
	}
	var mint Mint
	if err := bin.NewBinDecoder(account.Data).Decode(&mint); err != nil {
		return Mint{}, fmt.Errorf("mint %v: %w", account.Address, err)
	}
	return mint, nil
}

func (mint Mint) Bytes() []byte {
	return encode(&mint, MintSize)
}

func encode(v interface{}, size int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := bin.NewBinEncoder(buf).Encode(v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
