package commands

import (
	"errors"

	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/store"
	"github.com/catalogfi/aucty/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Init(env *Env) *cobra.Command {
	var (
		key       string
		source    string
		amount    uint64
		receiving string
		bid       uint64
		program   string
	)

	var cmd = &cobra.Command{
		Use:   "init",
		Short: "Lock tokens in escrow and open an auction",
		RunE: func(c *cobra.Command, args []string) error {
			client, err := env.Client(program)
			if err != nil {
				return err
			}
			req := escrow.InitRequest{
				EscrowAmount: amount,
				BidAmount:    bid,
			}
			if req.Initializer, err = util.ParsePrivateKey(key); err != nil {
				return err
			}
			if req.Source, err = util.ParsePublicKey(source); err != nil {
				return err
			}
			if req.Receiving, err = util.ParsePublicKey(receiving); err != nil {
				return err
			}

			auction, err := client.Initialize(c.Context(), req)
			if err != nil {
				// The bundle may still land, keep what is needed to find it.
				if auction.Address.IsZero() || errors.Is(err, ledger.ErrRejected) {
					return err
				}
				journalAuction(env, auction, err)
				notice.Fprintf(c.ErrOrStderr(), "auction %v was submitted but not confirmed, check it with `aucty show`\n", auction.Address)
				if pErr := printJSON(c.OutOrStdout(), auction); pErr != nil {
					env.Logger.Error("failed to print auction", zap.Error(pErr))
				}
				return err
			}
			journalAuction(env, auction, nil)

			success.Fprintf(c.ErrOrStderr(), "auction %v initialized\n", auction.Address)
			return printJSON(c.OutOrStdout(), auction)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Initializer secret: base58, comma separated bytes or a keygen file")
	cmd.MarkFlagRequired("key")
	cmd.Flags().StringVar(&source, "source", "", "Token account holding the tokens to escrow")
	cmd.MarkFlagRequired("source")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount to escrow")
	cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&receiving, "receiving", "", "Token account receiving the bid")
	cmd.MarkFlagRequired("receiving")
	cmd.Flags().Uint64Var(&bid, "bid", 0, "Amount a taker has to pay")
	cmd.MarkFlagRequired("bid")
	cmd.Flags().StringVar(&program, "program", "", "Auction program id (default: $AUCTY_PROGRAM_ID)")
	return cmd
}

// journalAuction records an auction the user submitted. A non-nil err marks it unconfirmed.
func journalAuction(env *Env, auction escrow.Auction, err error) {
	entry := store.Auction{
		Address:       auction.Address.String(),
		Initializer:   auction.Initializer.String(),
		Escrow:        auction.Escrow.String(),
		Receiving:     auction.Receiving.String(),
		EscrowAmount:  auction.EscrowAmount,
		BidAmount:     auction.BidAmount,
		InitSignature: auction.Signature,
	}
	if err != nil {
		entry.Status = store.Unconfirmed
		entry.Error = err.Error()
	}
	if jErr := env.Store.PutAuction(entry); jErr != nil {
		env.Logger.Error("failed to journal auction", zap.String("auction", entry.Address), zap.Error(jErr))
	}
}
