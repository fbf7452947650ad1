package commands

import (
	"github.com/catalogfi/aucty/pkg/util"
	"github.com/spf13/cobra"
)

func Show(env *Env) *cobra.Command {
	var (
		auction string
		program string
	)

	var cmd = &cobra.Command{
		Use:   "show",
		Short: "Show the state of an auction",
		RunE: func(c *cobra.Command, args []string) error {
			client, err := env.Client(program)
			if err != nil {
				return err
			}
			addr, err := util.ParsePublicKey(auction)
			if err != nil {
				return err
			}
			view, err := client.Inspect(c.Context(), addr)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), view)
		},
	}

	cmd.Flags().StringVar(&auction, "auction", "", "Auction account")
	cmd.MarkFlagRequired("auction")
	cmd.Flags().StringVar(&program, "program", "", "Auction program id (default: $AUCTY_PROGRAM_ID)")
	return cmd
}
