package auction_test

import (
	"encoding/binary"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/gagliardetto/solana-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func randomKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

var _ = Describe("Auction instructions", func() {
	programID := randomKey()

	Context("payload", func() {
		It("should be a tag followed by a little-endian amount", func() {
			data := auction.Payload{Tag: auction.TagTake, Amount: 1000}.Bytes()
			Expect(data).Should(HaveLen(auction.PayloadSize))
			Expect(data[0]).Should(Equal(byte(1)))
			Expect(binary.LittleEndian.Uint64(data[1:])).Should(Equal(uint64(1000)))

			payload, err := auction.DecodePayload(data)
			Expect(err).Should(BeNil())
			Expect(payload).Should(Equal(auction.Payload{Tag: auction.TagTake, Amount: 1000}))
		})

		It("should reject unknown tags and bad lengths", func() {
			data := auction.Payload{Tag: auction.TagInit, Amount: 1}.Bytes()
			_, err := auction.DecodePayload(data[:4])
			Expect(err).ShouldNot(BeNil())
			data[0] = 9
			_, err = auction.DecodePayload(data)
			Expect(err).ShouldNot(BeNil())
		})
	})

	Context("init", func() {
		It("should reference the accounts in the program's order", func() {
			keys := auction.InitKeys{
				Initializer:      randomKey(),
				TempTokenAccount: randomKey(),
				ReceivingAccount: randomKey(),
				AuctionAccount:   randomKey(),
			}
			ix := auction.NewInitInstruction(programID, keys, 50)
			Expect(ix.ProgramID()).Should(Equal(programID))

			metas := ix.Accounts()
			Expect(metas).Should(HaveLen(6))
			Expect(metas[0].PublicKey).Should(Equal(keys.Initializer))
			Expect(metas[0].IsSigner).Should(BeTrue())
			Expect(metas[1].PublicKey).Should(Equal(keys.TempTokenAccount))
			Expect(metas[1].IsWritable).Should(BeTrue())
			Expect(metas[2].PublicKey).Should(Equal(keys.ReceivingAccount))
			Expect(metas[3].PublicKey).Should(Equal(keys.AuctionAccount))
			Expect(metas[4].PublicKey).Should(Equal(solana.SysVarRentPubkey))
			Expect(metas[5].PublicKey).Should(Equal(solana.TokenProgramID))

			data, err := ix.Data()
			Expect(err).Should(BeNil())
			Expect(data).Should(Equal(auction.Payload{Tag: auction.TagInit, Amount: 50}.Bytes()))

			parsed, err := auction.ParseInitKeys(metas)
			Expect(err).Should(BeNil())
			Expect(parsed).Should(Equal(keys))
		})
	})

	Context("take", func() {
		It("should reference the accounts in the program's order", func() {
			keys := auction.TakeKeys{
				Taker:                       randomKey(),
				TakerPayingAccount:          randomKey(),
				TakerReceivingAccount:       randomKey(),
				TempTokenAccount:            randomKey(),
				Initializer:                 randomKey(),
				InitializerReceivingAccount: randomKey(),
				AuctionAccount:              randomKey(),
				Authority:                   randomKey(),
			}
			ix := auction.NewTakeInstruction(programID, keys, 1000)

			metas := ix.Accounts()
			Expect(metas).Should(HaveLen(9))
			expected := []solana.PublicKey{
				keys.Taker,
				keys.TakerPayingAccount,
				keys.TakerReceivingAccount,
				keys.TempTokenAccount,
				keys.Initializer,
				keys.InitializerReceivingAccount,
				keys.AuctionAccount,
				solana.TokenProgramID,
				keys.Authority,
			}
			for i, meta := range metas {
				Expect(meta.PublicKey).Should(Equal(expected[i]))
				Expect(meta.IsSigner).Should(Equal(i == 0))
			}

			parsed, err := auction.ParseTakeKeys(metas)
			Expect(err).Should(BeNil())
			Expect(parsed).Should(Equal(keys))

			_, err = auction.ParseTakeKeys(metas[:8])
			Expect(err).ShouldNot(BeNil())
		})
	})
})
