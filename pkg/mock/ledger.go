package mock

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/gagliardetto/solana-go"
)

// Fee is charged to the first signer of every transaction that lands.
const Fee = 5000

// RentExempt mirrors the ledger's rent exemption formula.
func RentExempt(size uint64) uint64 {
	return (128 + size) * 3480 * 2
}

// Ledger is an in-memory ledger.Gateway. It executes the system program, the subset of the token program
// the escrow flows use and the auction program. Transactions are applied atomically. Reads can be made to
// lag behind commits with WithVisibilityLag.
type Ledger struct {
	FuncSubmitAtomic func(context.Context, []solana.Instruction, []solana.PrivateKey) (solana.Signature, error)

	mu          sync.Mutex
	programID   solana.PublicKey
	authorities *auction.AuthorityCache
	committed   map[solana.PublicKey]ledger.Account
	visible     map[solana.PublicKey]ledger.Account
	lag         int
	stale       int
	unconfirmed bool
	closed      int
	nonce       uint64
}

func NewLedger(programID solana.PublicKey) *Ledger {
	return &Ledger{
		programID:   programID,
		authorities: auction.NewAuthorityCache(),
		committed:   map[solana.PublicKey]ledger.Account{},
		visible:     map[solana.PublicKey]ledger.Account{},
	}
}

// WithVisibilityLag makes the next reads after every commit return the state from before it.
func (l *Ledger) WithVisibilityLag(reads int) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lag = reads
	return l
}

// WithLostConfirmations makes SubmitAtomic report a confirmation timeout after committing.
func (l *Ledger) WithLostConfirmations() *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unconfirmed = true
	return l
}

func (l *Ledger) ProgramID() solana.PublicKey {
	return l.programID
}

func (l *Ledger) Account(ctx context.Context, addr solana.PublicKey) (ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	view := l.committed
	if l.stale > 0 {
		l.stale--
		view = l.visible
	}
	account, ok := view[addr]
	if !ok {
		return ledger.Account{}, fmt.Errorf("%w: %v", ledger.ErrAccountNotFound, addr)
	}
	account.Data = append([]byte(nil), account.Data...)
	return account, nil
}

func (l *Ledger) MinimumBalance(ctx context.Context, size uint64) (uint64, error) {
	return RentExempt(size), nil
}

func (l *Ledger) SubmitAtomic(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	if l.FuncSubmitAtomic != nil {
		return l.FuncSubmitAtomic(ctx, instructions, signers)
	}
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	if len(signers) == 0 {
		return solana.Signature{}, fmt.Errorf("at least one signer is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.begin(signers)
	if err := tx.debit(signers[0].PublicKey(), Fee); err != nil {
		return solana.Signature{}, ledger.Reject(fmt.Sprintf("fee payer: %v", err))
	}
	for i, ix := range instructions {
		if err := tx.execute(ix); err != nil {
			return solana.Signature{}, ledger.Reject(fmt.Sprintf("instruction %d: %v", i, err))
		}
	}
	sig, err := l.commit(tx, instructions, signers[0])
	if err == nil && l.unconfirmed {
		return sig, fmt.Errorf("%w: %v", ledger.ErrConfirmationTimeout, sig)
	}
	return sig, err
}

func (l *Ledger) begin(signers []solana.PrivateKey) *transaction {
	tx := &transaction{
		ledger:   l,
		accounts: make(map[solana.PublicKey]ledger.Account, len(l.committed)),
		signed:   map[solana.PublicKey]bool{},
	}
	for addr, account := range l.committed {
		tx.accounts[addr] = account
	}
	for _, signer := range signers {
		tx.signed[signer.PublicKey()] = true
	}
	return tx
}

func (l *Ledger) commit(tx *transaction, instructions []solana.Instruction, payer solana.PrivateKey) (solana.Signature, error) {
	l.nonce++
	message := new(bytes.Buffer)
	binary.Write(message, binary.LittleEndian, l.nonce)
	for _, ix := range instructions {
		data, _ := ix.Data()
		message.Write(data)
	}
	sig, err := payer.Sign(message.Bytes())
	if err != nil {
		return solana.Signature{}, err
	}

	if l.lag > 0 {
		l.visible = l.committed
		l.stale = l.lag
	}
	l.committed = tx.accounts
	l.closed += tx.closed
	return sig, nil
}

// Fund credits lamports to a system account, creating it when needed.
func (l *Ledger) Fund(addr solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.committed[addr]
	if !ok {
		account = ledger.Account{Address: addr, Owner: solana.SystemProgramID}
	}
	account.Lamports += lamports
	l.committed[addr] = account
}

// NewMint creates an initialized mint.
func (l *Ledger) NewMint() solana.PublicKey {
	addr := solana.NewWallet().PublicKey()
	l.SetAccount(ledger.Account{
		Address:  addr,
		Owner:    solana.TokenProgramID,
		Lamports: RentExempt(ledger.MintSize),
		Data:     ledger.Mint{Decimals: 9, IsInitialized: true}.Bytes(),
	})
	return addr
}

// NewTokenAccount creates an initialized token account holding amount.
func (l *Ledger) NewTokenAccount(mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	addr := solana.NewWallet().PublicKey()
	l.SetAccount(ledger.Account{
		Address:  addr,
		Owner:    solana.TokenProgramID,
		Lamports: RentExempt(ledger.TokenAccountSize),
		Data: ledger.TokenAccount{
			Mint:   mint,
			Owner:  owner,
			Amount: amount,
			State:  ledger.TokenAccountInitialized,
		}.Bytes(),
	})
	return addr
}

// SetAccount overwrites an account as is.
func (l *Ledger) SetAccount(account ledger.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed[account.Address] = account
}

func (l *Ledger) TokenBalance(addr solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.committed[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ledger.ErrAccountNotFound, addr)
	}
	tokenAccount, err := ledger.ParseTokenAccount(account)
	if err != nil {
		return 0, err
	}
	return tokenAccount.Amount, nil
}

func (l *Ledger) Lamports(addr solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed[addr].Lamports
}

func (l *Ledger) Exists(addr solana.PublicKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.committed[addr]
	return ok
}

// CloseCount is the number of token accounts closed so far.
func (l *Ledger) CloseCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
