package commands

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/catalogfi/aucty/pkg/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func List(env *Env) *cobra.Command {
	var status string

	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List auctions in the local journal",
		RunE: func(c *cobra.Command, args []string) error {
			filter, err := store.ParseStatus(status)
			if err != nil {
				return err
			}
			auctions, err := env.Store.Auctions(filter)
			if err != nil {
				return err
			}
			if len(auctions) == 0 {
				notice.Fprintln(c.ErrOrStderr(), "no auctions")
				return nil
			}
			return writeAuctions(c.OutOrStdout(), auctions)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list auctions with this status (initialized, failedToTake, settled, unconfirmed)")
	return cmd
}

// writeAuctions prints the journal as a table. The colored STATUS column is padded outside the tabwriter,
// escape codes would count towards its width.
func writeAuctions(out io.Writer, auctions []store.Auction) error {
	var table bytes.Buffer
	w := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AUCTION\tESCROW\tBID\tERROR")
	width := len("STATUS")
	for _, auction := range auctions {
		fmt.Fprintf(w, "%v\t%d\t%d\t%v\n", auction.Address, auction.EscrowAmount, auction.BidAmount, strings.ReplaceAll(auction.Error, "\n", " "))
		width = max(width, len(auction.Status.String()))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	rows := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	if _, err := fmt.Fprintf(out, "%-*s  %s\n", width, "STATUS", rows[0]); err != nil {
		return err
	}
	for i, auction := range auctions {
		status := statusColor(auction.Status).Sprint(fmt.Sprintf("%-*s", width, auction.Status))
		if _, err := fmt.Fprintf(out, "%s  %s\n", status, rows[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func statusColor(status store.Status) *color.Color {
	switch status {
	case store.Settled:
		return success
	case store.FailedToTake:
		return failure
	default:
		return notice
	}
}
