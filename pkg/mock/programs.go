package mock

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/gagliardetto/solana-go"
)

// Program errors, named after the errors the deployed programs raise.
var (
	errMissingSignature       = errors.New("MissingRequiredSignature")
	errIncorrectProgramID     = errors.New("IncorrectProgramId")
	errInvalidAccountData     = errors.New("InvalidAccountData")
	errAlreadyInitialized     = errors.New("AccountAlreadyInitialized")
	errNotRentExempt          = errors.New("custom program error: NotRentExempt")
	errExpectedAmountMismatch = errors.New("custom program error: ExpectedAmountMismatch")
	errInsufficientFunds      = errors.New("InsufficientFunds")
	errOwnerMismatch          = errors.New("OwnerMismatch")
	errMintMismatch           = errors.New("MintMismatch")
	errInvalidInstruction     = errors.New("InvalidInstructionData")
	errAccountInUse           = errors.New("AccountAlreadyInUse")
)

// transaction is the copy of the ledger a transaction works on. It replaces the committed state only
// when every instruction succeeded.
type transaction struct {
	ledger   *Ledger
	accounts map[solana.PublicKey]ledger.Account
	signed   map[solana.PublicKey]bool
	closed   int
}

func (tx *transaction) execute(ix solana.Instruction) error {
	data, err := ix.Data()
	if err != nil {
		return err
	}
	metas := ix.Accounts()
	for _, meta := range metas {
		if meta.IsSigner && !tx.signed[meta.PublicKey] {
			return fmt.Errorf("%w: %v", errMissingSignature, meta.PublicKey)
		}
	}

	switch program := ix.ProgramID(); {
	case program.Equals(solana.SystemProgramID):
		return tx.system(metas, data)
	case program.Equals(solana.TokenProgramID):
		return tx.token(metas, data)
	case program.Equals(tx.ledger.programID):
		return tx.auction(metas, data)
	default:
		return fmt.Errorf("%w: unknown program %v", errIncorrectProgramID, program)
	}
}

func (tx *transaction) get(addr solana.PublicKey) (ledger.Account, bool) {
	account, ok := tx.accounts[addr]
	return account, ok
}

func (tx *transaction) put(account ledger.Account) {
	tx.accounts[account.Address] = account
}

func (tx *transaction) debit(addr solana.PublicKey, lamports uint64) error {
	account, ok := tx.get(addr)
	if !ok || account.Lamports < lamports {
		return errInsufficientFunds
	}
	account.Lamports -= lamports
	tx.put(account)
	return nil
}

func (tx *transaction) system(metas []*solana.AccountMeta, data []byte) error {
	if len(data) < 4 {
		return errInvalidInstruction
	}
	switch binary.LittleEndian.Uint32(data) {
	case 0:
		// CreateAccount: lamports, space, owner.
		if len(data) != 4+8+8+32 || len(metas) != 2 {
			return errInvalidInstruction
		}
		lamports := binary.LittleEndian.Uint64(data[4:])
		space := binary.LittleEndian.Uint64(data[12:])
		owner := solana.PublicKeyFromBytes(data[20:52])
		funder, created := metas[0].PublicKey, metas[1].PublicKey
		if !tx.signed[created] {
			return fmt.Errorf("%w: %v", errMissingSignature, created)
		}
		if _, ok := tx.get(created); ok {
			return fmt.Errorf("%w: %v", errAccountInUse, created)
		}
		if err := tx.debit(funder, lamports); err != nil {
			return err
		}
		tx.put(ledger.Account{
			Address:  created,
			Owner:    owner,
			Lamports: lamports,
			Data:     make([]byte, space),
		})
		return nil
	case 2:
		// Transfer: lamports.
		if len(data) != 4+8 || len(metas) != 2 {
			return errInvalidInstruction
		}
		lamports := binary.LittleEndian.Uint64(data[4:])
		if err := tx.debit(metas[0].PublicKey, lamports); err != nil {
			return err
		}
		to, ok := tx.get(metas[1].PublicKey)
		if !ok {
			to = ledger.Account{Address: metas[1].PublicKey, Owner: solana.SystemProgramID}
		}
		to.Lamports += lamports
		tx.put(to)
		return nil
	default:
		return errInvalidInstruction
	}
}

func (tx *transaction) token(metas []*solana.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return errInvalidInstruction
	}
	switch data[0] {
	case 1:
		// InitializeAccount: account, mint, owner, rent sysvar.
		if len(metas) != 4 {
			return errInvalidInstruction
		}
		return tx.initializeTokenAccount(metas[0].PublicKey, metas[1].PublicKey, metas[2].PublicKey)
	case 3:
		// Transfer: source, destination, authority.
		if len(data) != 9 || len(metas) < 3 {
			return errInvalidInstruction
		}
		if !tx.signed[metas[2].PublicKey] {
			return errMissingSignature
		}
		return tx.transfer(metas[0].PublicKey, metas[1].PublicKey, metas[2].PublicKey, binary.LittleEndian.Uint64(data[1:]))
	default:
		return errInvalidInstruction
	}
}

func (tx *transaction) initializeTokenAccount(addr, mint, owner solana.PublicKey) error {
	account, ok := tx.get(addr)
	if !ok || !account.Owner.Equals(solana.TokenProgramID) || len(account.Data) != ledger.TokenAccountSize {
		return fmt.Errorf("%w: %v", errInvalidAccountData, addr)
	}
	if account.Lamports < RentExempt(ledger.TokenAccountSize) {
		return errNotRentExempt
	}
	for _, b := range account.Data {
		if b != 0 {
			return errAlreadyInitialized
		}
	}
	mintAccount, ok := tx.get(mint)
	if !ok || !mintAccount.Owner.Equals(solana.TokenProgramID) {
		return fmt.Errorf("%w: mint %v", errInvalidAccountData, mint)
	}
	if m, err := ledger.ParseMint(mintAccount); err != nil || !m.IsInitialized {
		return fmt.Errorf("%w: mint %v", errInvalidAccountData, mint)
	}
	account.Data = ledger.TokenAccount{Mint: mint, Owner: owner, State: ledger.TokenAccountInitialized}.Bytes()
	tx.put(account)
	return nil
}

func (tx *transaction) tokenAccount(addr solana.PublicKey) (ledger.Account, ledger.TokenAccount, error) {
	account, ok := tx.get(addr)
	if !ok {
		return ledger.Account{}, ledger.TokenAccount{}, fmt.Errorf("%w: %v does not exist", errInvalidAccountData, addr)
	}
	tokenAccount, err := ledger.ParseTokenAccount(account)
	if err != nil {
		return ledger.Account{}, ledger.TokenAccount{}, fmt.Errorf("%w: %v", errInvalidAccountData, err)
	}
	return account, tokenAccount, nil
}

// transfer moves tokens on behalf of authority. The caller is responsible for authority having signed.
func (tx *transaction) transfer(src, dst, authority solana.PublicKey, amount uint64) error {
	srcAccount, srcToken, err := tx.tokenAccount(src)
	if err != nil {
		return err
	}
	dstAccount, dstToken, err := tx.tokenAccount(dst)
	if err != nil {
		return err
	}
	if !srcToken.Owner.Equals(authority) {
		return errOwnerMismatch
	}
	if !srcToken.Mint.Equals(dstToken.Mint) {
		return errMintMismatch
	}
	if srcToken.Amount < amount {
		return errInsufficientFunds
	}
	if src.Equals(dst) {
		return nil
	}
	srcToken.Amount -= amount
	dstToken.Amount += amount
	srcAccount.Data = srcToken.Bytes()
	dstAccount.Data = dstToken.Bytes()
	tx.put(srcAccount)
	tx.put(dstAccount)
	return nil
}

func (tx *transaction) setOwner(addr, current, next solana.PublicKey) error {
	account, tokenAccount, err := tx.tokenAccount(addr)
	if err != nil {
		return err
	}
	if !tokenAccount.Owner.Equals(current) {
		return errOwnerMismatch
	}
	tokenAccount.Owner = next
	account.Data = tokenAccount.Bytes()
	tx.put(account)
	return nil
}

// closeAccount drains lamports to dst and removes an empty token account.
func (tx *transaction) closeAccount(addr, dst, authority solana.PublicKey) error {
	account, tokenAccount, err := tx.tokenAccount(addr)
	if err != nil {
		return err
	}
	if !tokenAccount.Owner.Equals(authority) {
		return errOwnerMismatch
	}
	if tokenAccount.Amount != 0 {
		return fmt.Errorf("%w: non-native account has balance", errInvalidAccountData)
	}
	receiver, ok := tx.get(dst)
	if !ok {
		receiver = ledger.Account{Address: dst, Owner: solana.SystemProgramID}
	}
	receiver.Lamports += account.Lamports
	tx.put(receiver)
	delete(tx.accounts, addr)
	tx.closed++
	return nil
}

func (tx *transaction) auction(metas []*solana.AccountMeta, data []byte) error {
	payload, err := auction.DecodePayload(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidInstruction, err)
	}
	authority, err := tx.ledger.authorities.Get(tx.ledger.programID)
	if err != nil {
		return err
	}
	switch payload.Tag {
	case auction.TagInit:
		keys, err := auction.ParseInitKeys(metas)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidInstruction, err)
		}
		return tx.initAuction(keys, payload.Amount, authority)
	default:
		keys, err := auction.ParseTakeKeys(metas)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidInstruction, err)
		}
		return tx.takeAuction(keys, payload.Amount, authority)
	}
}

func (tx *transaction) initAuction(keys auction.InitKeys, bid uint64, authority auction.Authority) error {
	if !tx.signed[keys.Initializer] {
		return errMissingSignature
	}
	receiving, ok := tx.get(keys.ReceivingAccount)
	if !ok || !receiving.Owner.Equals(solana.TokenProgramID) {
		return errIncorrectProgramID
	}
	account, ok := tx.get(keys.AuctionAccount)
	if !ok || !account.Owner.Equals(tx.ledger.programID) {
		return fmt.Errorf("%w: auction account", errIncorrectProgramID)
	}
	if account.Lamports < RentExempt(uint64(len(account.Data))) {
		return errNotRentExempt
	}
	record, err := auction.Decode(account.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidAccountData, err)
	}
	if record.IsInitialized {
		return errAlreadyInitialized
	}
	record = auction.Terms{BidAmount: bid}.Record(keys.Initializer, keys.TempTokenAccount, keys.ReceivingAccount)
	account.Data = auction.Encode(record)
	tx.put(account)

	return tx.setOwner(keys.TempTokenAccount, keys.Initializer, authority.Address)
}

func (tx *transaction) takeAuction(keys auction.TakeKeys, expected uint64, authority auction.Authority) error {
	if !tx.signed[keys.Taker] {
		return errMissingSignature
	}
	_, escrow, err := tx.tokenAccount(keys.TempTokenAccount)
	if err != nil {
		return err
	}
	if expected != escrow.Amount {
		return errExpectedAmountMismatch
	}
	account, ok := tx.get(keys.AuctionAccount)
	if !ok || !account.Owner.Equals(tx.ledger.programID) {
		return fmt.Errorf("%w: auction account", errIncorrectProgramID)
	}
	record, err := auction.Decode(account.Data)
	if err != nil || !record.IsInitialized {
		return fmt.Errorf("%w: auction record", errInvalidAccountData)
	}
	if !record.TempTokenAccount.Equals(keys.TempTokenAccount) ||
		!record.Initializer.Equals(keys.Initializer) ||
		!record.InitializerReceivingAccount.Equals(keys.InitializerReceivingAccount) {
		return errInvalidAccountData
	}
	if !keys.Authority.Equals(authority.Address) {
		return fmt.Errorf("%w: authority", errInvalidAccountData)
	}

	if err := tx.transfer(keys.TakerPayingAccount, keys.InitializerReceivingAccount, keys.Taker, record.BidAmount); err != nil {
		return err
	}
	if err := tx.transfer(keys.TempTokenAccount, keys.TakerReceivingAccount, authority.Address, escrow.Amount); err != nil {
		return err
	}
	return tx.closeAccount(keys.TempTokenAccount, keys.Initializer, authority.Address)
}
