package cli

import (
	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "List winning rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Leaderboard

			if err := client.Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newDifficultiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "difficulties",
		Short: "List difficulty levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Difficulty

			if err := client.Get("/api/v1/difficulties", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
