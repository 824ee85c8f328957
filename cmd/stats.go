package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/account"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics for the active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		u, err := account.NewService(account.NewSQLStore(s.UserRepo())).Restore(ctx)
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		if u == nil {
			fmt.Println("No active user. Sign in from the app first.")
			return nil
		}

		st, err := s.EventRepo().Stats(ctx, u.Username)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		p := u.Progress
		fmt.Printf("Learner:     %s\n", u.Username)
		fmt.Printf("XP:          %d\n", p.XP)
		fmt.Printf("Gems:        %d\n", p.Gems)
		fmt.Printf("Lives:       %d\n", p.Lives)
		fmt.Printf("Streak:      %d\n", p.Streak)
		fmt.Printf("Completed:   %d lessons\n", len(p.Completed))
		fmt.Printf("Game overs:  %d\n", st.GameOvers)

		if st.Answers == 0 {
			fmt.Println("\nNo answers recorded yet.")
			return nil
		}
		fmt.Printf("Accuracy:    %d/%d (%.0f%%)\n", st.Correct, st.Answers, 100*float64(st.Correct)/float64(st.Answers))

		types := make([]string, 0, len(st.ByType))
		for t := range st.ByType {
			types = append(types, t)
		}
		sort.Strings(types)

		fmt.Println()
		fmt.Printf("%-20s  %7s  %7s  %8s\n", "Exercise type", "Answers", "Correct", "Accuracy")
		fmt.Println(strings.Repeat("─", 48))
		for _, t := range types {
			a := st.ByType[t]
			fmt.Printf("%-20s  %7d  %7d  %7.0f%%\n", t, a.Answers, a.Correct, 100*a.Accuracy())
		}
		return nil
	},
}
