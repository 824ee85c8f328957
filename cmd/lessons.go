package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/account"
	"github.com/nalibo/nalibopath/internal/curriculum"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List the lesson path and its unlock state for the active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc := account.NewService(account.NewSQLStore(s.UserRepo()))
		u, err := svc.Restore(cmd.Context())
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}

		var completed []string
		if u != nil {
			completed = u.Progress.Completed
			fmt.Printf("Signed in as %s\n\n", u.Username)
		} else {
			fmt.Print("No active user; showing a fresh path.\n\n")
		}

		cat := curriculum.Default()
		fmt.Printf("%-4s  %-32s  %-18s  %s\n", "ID", "Title", "Level", "State")
		fmt.Println(strings.Repeat("─", 72))
		for _, l := range cat.Lessons() {
			state := "locked"
			switch {
			case containsID(completed, l.ID):
				state = "completed"
			case cat.IsUnlocked(l.ID, completed):
				state = "unlocked"
			}
			fmt.Printf("%-4s  %-32s  %-18s  %s\n", l.ID, truncate(l.Title, 32), l.Level, state)
		}
		fmt.Printf("\n%d lessons\n", cat.Len())
		return nil
	},
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
