package config_test

import (
	"os"
	"time"

	"github.com/catalogfi/aucty/pkg/config"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).Should(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Config", func() {
	It("should fall back to localnet defaults", func() {
		cfg, err := config.Load()
		Expect(err).Should(BeNil())
		Expect(cfg.Ledger.Endpoint).Should(Equal(rpc.LocalNet_RPC))
		Expect(cfg.Store.DB).Should(Equal(config.DefaultStorePath()))
		Expect(cfg.ProgramID.IsZero()).Should(BeTrue())
		Expect(cfg.Daemon.Host).Should(Equal("127.0.0.1"))
		Expect(cfg.Daemon.Password).Should(BeEmpty())

		policy := cfg.ConfirmPolicy()
		Expect(policy.Timeout).Should(Equal(30 * time.Second))
		Expect(policy.Interval).Should(Equal(250 * time.Millisecond))
	})

	It("should read the environment", func() {
		programID := solana.NewWallet().PublicKey()
		setenv("AUCTY_RPC_URL", rpc.DevNet_RPC)
		setenv("AUCTY_COMMITMENT", "finalized")
		setenv("AUCTY_PROGRAM_ID", programID.String())
		setenv("AUCTY_CONFIRM_TIMEOUT", "5s")
		setenv("AUCTY_REDIS_URL", "redis://localhost:6379")

		cfg, err := config.Load()
		Expect(err).Should(BeNil())
		Expect(cfg.ProgramID).Should(Equal(programID))
		Expect(cfg.Store.Redis).Should(Equal("redis://localhost:6379"))

		opts := cfg.LedgerOptions()
		Expect(opts.Endpoint).Should(Equal(rpc.DevNet_RPC))
		Expect(opts.Commitment).Should(Equal(rpc.CommitmentFinalized))
		Expect(opts.Confirm.Timeout).Should(Equal(5 * time.Second))

		Expect(cfg.EscrowOptions(solana.PublicKey{}).ProgramID).Should(Equal(programID))
		other := solana.NewWallet().PublicKey()
		Expect(cfg.EscrowOptions(other).ProgramID).Should(Equal(other))
	})

	It("should reject bad values", func() {
		setenv("AUCTY_PROGRAM_ID", "not-a-key")
		_, err := config.Load()
		Expect(err).ShouldNot(BeNil())
	})

	It("should reject unknown commitments", func() {
		setenv("AUCTY_COMMITMENT", "eventually")
		_, err := config.Load()
		Expect(err).ShouldNot(BeNil())
	})
})
