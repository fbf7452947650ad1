package commands

import (
	"errors"

	"github.com/catalogfi/aucty/pkg/escrow"
	"github.com/catalogfi/aucty/pkg/ledger"
	"github.com/catalogfi/aucty/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Take(env *Env) *cobra.Command {
	var (
		key       string
		auction   string
		receiving string
		paying    string
		expected  uint64
		program   string
	)

	var cmd = &cobra.Command{
		Use:   "take",
		Short: "Pay the bid and receive the escrowed tokens",
		RunE: func(c *cobra.Command, args []string) error {
			client, err := env.Client(program)
			if err != nil {
				return err
			}
			req := escrow.TakeRequest{ExpectedAmount: expected}
			if req.Taker, err = util.ParsePrivateKey(key); err != nil {
				return err
			}
			if req.Auction, err = util.ParsePublicKey(auction); err != nil {
				return err
			}
			if req.Receiving, err = util.ParsePublicKey(receiving); err != nil {
				return err
			}
			if req.Paying, err = util.ParsePublicKey(paying); err != nil {
				return err
			}

			sig, err := client.Take(c.Context(), req)
			// Only journal takes that reached the ledger. A timed out take keeps its signature and is
			// journaled as unconfirmed.
			if phase := escrow.PhaseOf(err); err == nil || phase == escrow.PhaseSettle {
				signature := ""
				if !sig.IsZero() {
					signature = sig.String()
				}
				if jErr := env.Store.PutTake(req.Auction.String(), signature, err); jErr != nil {
					env.Logger.Error("failed to journal take", zap.String("auction", auction), zap.Error(jErr))
				}
			}
			switch {
			case errors.Is(err, ledger.ErrConfirmationTimeout):
				notice.Fprintf(c.ErrOrStderr(), "take of auction %v was submitted but not confirmed, check it with `aucty show`\n", req.Auction)
				return err
			case err != nil:
				failure.Fprintf(c.ErrOrStderr(), "failed to take auction %v\n", req.Auction)
				return err
			}

			success.Fprintf(c.ErrOrStderr(), "auction %v settled\n", req.Auction)
			return printJSON(c.OutOrStdout(), map[string]string{
				"auctionAddress": req.Auction.String(),
				"signature":      sig.String(),
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Taker secret: base58, comma separated bytes or a keygen file")
	cmd.MarkFlagRequired("key")
	cmd.Flags().StringVar(&auction, "auction", "", "Auction account")
	cmd.MarkFlagRequired("auction")
	cmd.Flags().StringVar(&receiving, "receiving", "", "Token account receiving the escrowed tokens")
	cmd.MarkFlagRequired("receiving")
	cmd.Flags().StringVar(&paying, "paying", "", "Token account paying the bid")
	cmd.MarkFlagRequired("paying")
	cmd.Flags().Uint64Var(&expected, "expected", 0, "Escrowed amount the taker expects to receive")
	cmd.MarkFlagRequired("expected")
	cmd.Flags().StringVar(&program, "program", "", "Auction program id (default: $AUCTY_PROGRAM_ID)")
	return cmd
}
