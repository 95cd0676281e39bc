package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the relay serves",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		list, err := client.Agents(cmd.Context())
		if err != nil {
			return err
		}

		out := newPrinter(cmd.OutOrStdout(), v.GetBool("PLAIN"))
		tw := tabwriter.NewWriter(out.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, out.render(headerStyle, "ID")+"\t"+out.render(headerStyle, "NAME")+"\t"+out.render(headerStyle, "BUDGET"))
		for _, a := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Name, a.Budget())
		}
		return tw.Flush()
	},
}
