package auction

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AccountSize is the span of the auction record as written by the on-chain program. The layout carries
// no version byte, a program upgrade that changes it will surface as ErrMalformedAccountData.
const AccountSize = 1 + 32 + 32 + 32 + 8

// Account is the auction record stored in the account owned by the auction program.
type Account struct {
	IsInitialized               bool
	Initializer                 solana.PublicKey
	TempTokenAccount            solana.PublicKey
	InitializerReceivingAccount solana.PublicKey
	BidAmount                   uint64
}

func (acc Account) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBool(acc.IsInitialized); err != nil {
		return err
	}
	for _, key := range []solana.PublicKey{acc.Initializer, acc.TempTokenAccount, acc.InitializerReceivingAccount} {
		if err := enc.WriteBytes(key[:], false); err != nil {
			return err
		}
	}
	return enc.WriteUint64(acc.BidAmount, binary.LittleEndian)
}

func (acc *Account) UnmarshalWithDecoder(dec *bin.Decoder) error {
	flag, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	switch flag {
	case 0:
		acc.IsInitialized = false
	case 1:
		acc.IsInitialized = true
	default:
		return fmt.Errorf("invalid initialized flag %d", flag)
	}
	for _, key := range []*solana.PublicKey{&acc.Initializer, &acc.TempTokenAccount, &acc.InitializerReceivingAccount} {
		data, err := dec.ReadNBytes(32)
		if err != nil {
			return err
		}
		*key = solana.PublicKeyFromBytes(data)
	}
	acc.BidAmount, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

// Encode returns the fixed-size representation of the record.
func Encode(acc Account) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, AccountSize))
	if err := acc.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		// Writes into a bytes.Buffer never fail.
		panic(err)
	}
	return buf.Bytes()
}

// Decode parses an auction record. Input that is not exactly AccountSize bytes long, or whose initialized
// flag is not a boolean, is rejected with ErrMalformedAccountData and a zero Account.
func Decode(data []byte) (Account, error) {
	if len(data) != AccountSize {
		return Account{}, fmt.Errorf("%w: expect %d bytes, got %d", ErrMalformedAccountData, AccountSize, len(data))
	}
	var acc Account
	if err := acc.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrMalformedAccountData, err)
	}
	return acc, nil
}
