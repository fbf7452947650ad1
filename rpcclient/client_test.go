package rpcclient_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	jsonrpc "github.com/catalogfi/aucty/daemon/rpc"
	"github.com/catalogfi/aucty/daemon/types"
	"github.com/catalogfi/aucty/pkg/auction"
	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/mock"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/catalogfi/aucty/rpcclient"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Daemon client", func() {
	var (
		server *httptest.Server
		opened escrow.Auction
		client rpcclient.Client
	)

	BeforeEach(func() {
		programID := solana.NewWallet().PublicKey()
		l := mock.NewLedger(programID)
		escrowClient := escrow.NewClient(escrow.NewOptions(programID).WithConfirmPolicy(ledger.ConfirmPolicy{
			Timeout:     time.Second,
			Interval:    5 * time.Millisecond,
			MaxInterval: 20 * time.Millisecond,
		}), l, zap.NewNop())

		alice := solana.NewWallet().PrivateKey
		l.Fund(alice.PublicKey(), 1e9)
		mintX, mintY := l.NewMint(), l.NewMint()

		var err error
		opened, err = escrowClient.Initialize(context.Background(), escrow.InitRequest{
			Initializer:  alice,
			Source:       l.NewTokenAccount(mintX, alice.PublicKey(), 1000),
			EscrowAmount: 1000,
			Receiving:    l.NewTokenAccount(mintY, alice.PublicKey(), 0),
			BidAmount:    50,
		})
		Expect(err).Should(BeNil())

		mr := miniredis.RunT(GinkgoT())
		journal, err := store.NewRedisStore("redis://" + mr.Addr())
		Expect(err).Should(BeNil())
		Expect(journal.PutAuction(store.Auction{Address: opened.Address.String(), EscrowAmount: 1000, BidAmount: 50})).Should(Succeed())

		rpc, err := jsonrpc.NewRpcServer("admin", "secret", types.CoreConfig{
			Escrow:  escrowClient,
			Storage: journal,
			Version: "test",
		})
		Expect(err).Should(BeNil())
		server = httptest.NewServer(rpc.Handler())
		client = rpcclient.NewClient("admin", "secret", "http", strings.TrimPrefix(server.URL, "http://"))
	})

	AfterEach(func() {
		server.Close()
	})

	It("should fetch auctions", func() {
		resp, err := client.GetAuction(context.Background(), opened.Address.String())
		Expect(err).Should(BeNil())
		Expect(resp.Auction.Address).Should(Equal(opened.Address))
		Expect(resp.Auction.State).Should(Equal(auction.Initialized))
		Expect(resp.Auction.EscrowAmount).Should(Equal(uint64(1000)))
		Expect(resp.Journal).ShouldNot(BeNil())
	})

	It("should list auctions and report status", func() {
		auctions, err := client.ListAuctions(context.Background(), "")
		Expect(err).Should(BeNil())
		Expect(auctions).Should(HaveLen(1))

		status, err := client.Status(context.Background())
		Expect(err).Should(BeNil())
		Expect(status.Version).Should(Equal("test"))
		Expect(status.Auctions["initialized"]).Should(Equal(1))
	})

	It("should surface rpc errors", func() {
		_, err := client.GetAuction(context.Background(), "not-an-address")
		var rpcErr *rpcclient.Error
		Expect(errors.As(err, &rpcErr)).Should(BeTrue())
		Expect(rpcErr.Code).Should(Equal(jsonrpc.ErrorCodeInvalidParams))
	})

	It("should report rejected credentials", func() {
		client = rpcclient.NewClient("admin", "wrong", "http", strings.TrimPrefix(server.URL, "http://"))
		_, err := client.Status(context.Background())
		Expect(err).Should(MatchError(ContainSubstring("401")))
	})
})
