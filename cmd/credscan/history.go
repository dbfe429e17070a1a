package main

import (
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "Print a user's stored analyses, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		application, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer application.Close()

		records, err := application.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), records)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum records (default 50, max 200)")
	rootCmd.AddCommand(historyCmd)
}
