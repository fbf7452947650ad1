package util_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/util"
	"github.com/gagliardetto/solana-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parsing user input", func() {
	key := solana.NewWallet().PrivateKey

	It("should parse addresses", func() {
		addr, err := util.ParsePublicKey(" " + key.PublicKey().String() + "\n")
		Expect(err).Should(BeNil())
		Expect(addr).Should(Equal(key.PublicKey()))

		_, err = util.ParsePublicKey("0xdeadbeef")
		Expect(errors.Is(err, auction.ErrInvalidInput)).Should(BeTrue())
	})

	It("should parse base58 secrets", func() {
		parsed, err := util.ParsePrivateKey(key.String())
		Expect(err).Should(BeNil())
		Expect(parsed).Should(Equal(key))
	})

	It("should parse byte lists", func() {
		bytes := make([]string, len(key))
		for i, b := range key {
			bytes[i] = fmt.Sprint(b)
		}
		parsed, err := util.ParsePrivateKey(strings.Join(bytes, ","))
		Expect(err).Should(BeNil())
		Expect(parsed).Should(Equal(key))

		parsed, err = util.ParsePrivateKey("[" + strings.Join(bytes, ", ") + "]")
		Expect(err).Should(BeNil())
		Expect(parsed).Should(Equal(key))

		_, err = util.ParsePrivateKey(strings.Join(bytes[:32], ","))
		Expect(errors.Is(err, auction.ErrInvalidInput)).Should(BeTrue())
	})

	It("should read keygen files", func() {
		data, err := json.Marshal(toInts(key))
		Expect(err).Should(BeNil())
		path := filepath.Join(GinkgoT().TempDir(), "id.json")
		Expect(os.WriteFile(path, data, 0600)).Should(Succeed())

		parsed, err := util.ParsePrivateKey(path)
		Expect(err).Should(BeNil())
		Expect(parsed).Should(Equal(key))
	})

	It("should reject garbage", func() {
		for _, input := range []string{"", "   ", "not-base58-0OIl"} {
			_, err := util.ParsePrivateKey(input)
			Expect(errors.Is(err, auction.ErrInvalidInput)).Should(BeTrue())
		}
	})
})

func toInts(key solana.PrivateKey) []int {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	return ints
}
