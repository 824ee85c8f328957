package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/account"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank all local learners by XP",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		standings, err := account.NewService(account.NewSQLStore(s.UserRepo())).Leaderboard(cmd.Context())
		if err != nil {
			return fmt.Errorf("load leaderboard: %w", err)
		}
		if len(standings) == 0 {
			fmt.Println("No learners yet.")
			return nil
		}

		fmt.Printf("%-4s  %-24s  %8s  %6s  %s\n", "Rank", "Learner", "XP", "Streak", "Level")
		fmt.Println(strings.Repeat("─", 64))
		for i, st := range standings {
			if limit > 0 && i >= limit {
				break
			}
			fmt.Printf("%-4d  %-24s  %8d  %6d  %s\n",
				st.Rank, truncate(st.Username, 24), st.XP, st.Streak, st.Level)
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", 0, "Number of learners to show (0 = all)")
}
