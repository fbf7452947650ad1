package auction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/puzpuzpuz/xsync/v2"
)

// AuthoritySeed is the seed the program uses to derive the account that owns every escrow holding account.
var AuthoritySeed = []byte("auction")

// Authority is the program derived address that signs for escrowed funds, with its bump seed.
type Authority struct {
	Address solana.PublicKey
	Bump    uint8
}

func DeriveAuthority(programID solana.PublicKey) (Authority, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{AuthoritySeed}, programID)
	if err != nil {
		return Authority{}, fmt.Errorf("failed to derive authority for program %v: %w", programID, err)
	}
	return Authority{Address: addr, Bump: bump}, nil
}

// AuthorityCache memoizes DeriveAuthority per program. It is safe for concurrent use.
type AuthorityCache struct {
	authorities *xsync.MapOf[string, Authority]
}

func NewAuthorityCache() *AuthorityCache {
	return &AuthorityCache{
		authorities: xsync.NewMapOf[Authority](),
	}
}

func (cache *AuthorityCache) Get(programID solana.PublicKey) (Authority, error) {
	key := programID.String()
	if authority, ok := cache.authorities.Load(key); ok {
		return authority, nil
	}
	authority, err := DeriveAuthority(programID)
	if err != nil {
		return Authority{}, err
	}
	cache.authorities.Store(key, authority)
	return authority, nil
}

func (cache *AuthorityCache) Len() int {
	return cache.authorities.Size()
}
