package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/issue-slots/internal/usecase"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Ranks repository contributors by closed issues and outputs as JSON",
	Long:  `Scans recent issue events of a GitHub repository, ranks contributors by the number of issues they closed, and outputs the result in JSON format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		repo, _ := cmd.Flags().GetString("repo")
		pages, _ := cmd.Flags().GetInt("pages")
		limit, _ := cmd.Flags().GetInt("limit")

		view, _, err := a.service.Leaderboard(cmd.Context(), usecase.LeaderboardRequest{
			Repo:  repo,
			Limit: limit,
			Pages: pages,
		})
		if err != nil {
			return fmt.Errorf("failed to build leaderboard: %w", err)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}

		// Print the final JSON to standard output.
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().StringP("repo", "r", "", "Target repository as owner/name or URL (required)")
	leaderboardCmd.Flags().IntP("pages", "p", 0, "Pages of 100 issue events to scan (1-5, default from LEADERBOARD_PAGES)")
	leaderboardCmd.Flags().IntP("limit", "l", usecase.DefaultLeaderboardLimit, "Number of contributors to output (1-50)")
	_ = leaderboardCmd.MarkFlagRequired("repo")
}
