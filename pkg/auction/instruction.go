package auction

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Tag selects the auction program operation. It is the first byte of the instruction data.
type Tag uint8

const (
	TagInit Tag = iota
	TagTake
)

func (tag Tag) String() string {
	switch tag {
	case TagInit:
		return "init"
	case TagTake:
		return "take"
	default:
		return fmt.Sprintf("tag(%d)", uint8(tag))
	}
}

// PayloadSize is the length of the instruction data: one tag byte followed by a little-endian u64.
const PayloadSize = 1 + 8

// Payload is the instruction data understood by the auction program. Amount is the bid for Init and the
// amount of asset X the taker expects for Take.
type Payload struct {
	Tag    Tag
	Amount uint64
}

func (p Payload) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(uint8(p.Tag)); err != nil {
		return err
	}
	return enc.WriteUint64(p.Amount, binary.LittleEndian)
}

func (p *Payload) UnmarshalWithDecoder(dec *bin.Decoder) error {
	tag, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	if Tag(tag) != TagInit && Tag(tag) != TagTake {
		return fmt.Errorf("unknown instruction tag %d", tag)
	}
	p.Tag = Tag(tag)
	p.Amount, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

func (p Payload) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PayloadSize))
	if err := p.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func DecodePayload(data []byte) (Payload, error) {
	if len(data) != PayloadSize {
		return Payload{}, fmt.Errorf("invalid instruction data: expect %d bytes, got %d", PayloadSize, len(data))
	}
	var p Payload
	if err := p.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return Payload{}, fmt.Errorf("invalid instruction data: %w", err)
	}
	return p, nil
}

// InitKeys are the accounts referenced by the Init instruction.
type InitKeys struct {
	Initializer      solana.PublicKey
	TempTokenAccount solana.PublicKey
	ReceivingAccount solana.PublicKey
	AuctionAccount   solana.PublicKey
}

const initKeysLen = 6

// Metas serializes the keys in the order the program reads them.
func (keys InitKeys) Metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(keys.Initializer, false, true),
		solana.NewAccountMeta(keys.TempTokenAccount, true, false),
		solana.NewAccountMeta(keys.ReceivingAccount, false, false),
		solana.NewAccountMeta(keys.AuctionAccount, true, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}
}

func ParseInitKeys(metas []*solana.AccountMeta) (InitKeys, error) {
	if len(metas) != initKeysLen {
		return InitKeys{}, fmt.Errorf("init expects %d accounts, got %d", initKeysLen, len(metas))
	}
	if !metas[4].PublicKey.Equals(solana.SysVarRentPubkey) || !metas[5].PublicKey.Equals(solana.TokenProgramID) {
		return InitKeys{}, fmt.Errorf("init expects the rent sysvar and the token program")
	}
	return InitKeys{
		Initializer:      metas[0].PublicKey,
		TempTokenAccount: metas[1].PublicKey,
		ReceivingAccount: metas[2].PublicKey,
		AuctionAccount:   metas[3].PublicKey,
	}, nil
}

// TakeKeys are the accounts referenced by the Take instruction.
type TakeKeys struct {
	Taker                       solana.PublicKey
	TakerPayingAccount          solana.PublicKey
	TakerReceivingAccount       solana.PublicKey
	TempTokenAccount            solana.PublicKey
	Initializer                 solana.PublicKey
	InitializerReceivingAccount solana.PublicKey
	AuctionAccount              solana.PublicKey
	Authority                   solana.PublicKey
}

const takeKeysLen = 9

// Metas serializes the keys in the order the program reads them. The program indexes them positionally.
func (keys TakeKeys) Metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(keys.Taker, false, true),
		solana.NewAccountMeta(keys.TakerPayingAccount, true, false),
		solana.NewAccountMeta(keys.TakerReceivingAccount, true, false),
		solana.NewAccountMeta(keys.TempTokenAccount, true, false),
		solana.NewAccountMeta(keys.Initializer, true, false),
		solana.NewAccountMeta(keys.InitializerReceivingAccount, true, false),
		solana.NewAccountMeta(keys.AuctionAccount, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(keys.Authority, false, false),
	}
}

func ParseTakeKeys(metas []*solana.AccountMeta) (TakeKeys, error) {
	if len(metas) != takeKeysLen {
		return TakeKeys{}, fmt.Errorf("take expects %d accounts, got %d", takeKeysLen, len(metas))
	}
	if !metas[7].PublicKey.Equals(solana.TokenProgramID) {
		return TakeKeys{}, fmt.Errorf("take expects the token program at position 7")
	}
	return TakeKeys{
		Taker:                       metas[0].PublicKey,
		TakerPayingAccount:          metas[1].PublicKey,
		TakerReceivingAccount:       metas[2].PublicKey,
		TempTokenAccount:            metas[3].PublicKey,
		Initializer:                 metas[4].PublicKey,
		InitializerReceivingAccount: metas[5].PublicKey,
		AuctionAccount:              metas[6].PublicKey,
		Authority:                   metas[8].PublicKey,
	}, nil
}

// NewInitInstruction builds the auction program instruction that records an auction with the given bid.
func NewInitInstruction(programID solana.PublicKey, keys InitKeys, bid uint64) solana.Instruction {
	return solana.NewInstruction(programID, keys.Metas(), Payload{Tag: TagInit, Amount: bid}.Bytes())
}

// NewTakeInstruction builds the auction program instruction that settles an auction. The program rejects it
// unless expected equals the escrowed amount of asset X.
func NewTakeInstruction(programID solana.PublicKey, keys TakeKeys, expected uint64) solana.Instruction {
	return solana.NewInstruction(programID, keys.Metas(), Payload{Tag: TagTake, Amount: expected}.Bytes())
}
