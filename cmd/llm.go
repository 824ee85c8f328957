package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/llm"
	"github.com/nalibo/nalibopath/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect tutor, speech and pronunciation requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failedOnly, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		// Filters apply after the query, so fetch unbounded when filtering.
		opts := store.QueryOpts{Limit: limit}
		if purpose != "" || failedOnly {
			opts.Limit = 0
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		var shown []store.LLMRequestEventRecord
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			if failedOnly && e.Success {
				continue
			}
			shown = append(shown, e)
			if limit > 0 && len(shown) == limit {
				break
			}
		}
		if len(shown) == 0 {
			fmt.Println("No LLM requests found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-12s  %-28s  %6s  %6s  %7s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range shown {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-5d  %-19s  %-12s  %-28s  %6d  %6d  %7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 12),
				truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fields := [][2]string{
			{"ID", strconv.Itoa(e.ID)},
			{"Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Success", strconv.FormatBool(e.Success)},
		}
		if e.ErrorMessage != "" {
			fields = append(fields, [2]string{"Error", e.ErrorMessage})
		}
		for _, f := range fields {
			fmt.Printf("%-10s %s\n", f[0]+":", f[1])
		}

		printSection("REQUEST", e.RequestBody)
		printSection("RESPONSE", e.ResponseBody)
		return nil
	},
}

func printSection(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(title)
	fmt.Println(sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage, failure rate and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		rule := strings.Repeat("─", 80)
		fmt.Println("Usage by Purpose")
		fmt.Println(rule)
		fmt.Printf("%-14s  %6s  %7s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		fmt.Println(rule)

		var total store.LLMUsageRow
		for _, u := range byPurpose {
			fmt.Printf("%-14s  %6d  %6.0f%%  %10d  %10d  %10d  %8.0f\n",
				truncate(u.Key, 14), u.Calls, failureRate(u), u.InputTokens, u.OutputTokens,
				u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
			total.Calls += u.Calls
			total.Failures += u.Failures
			total.InputTokens += u.InputTokens
			total.OutputTokens += u.OutputTokens
		}
		fmt.Println(rule)
		fmt.Printf("%-14s  %6d  %6.0f%%  %10d  %10d  %10d\n",
			"TOTAL", total.Calls, failureRate(total), total.InputTokens, total.OutputTokens,
			total.InputTokens+total.OutputTokens)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Estimated Cost (USD)")
		fmt.Println(rule)
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(rule)

		var cost float64
		var unpriced []string
		for _, u := range byModel {
			price := "?"
			if c := llm.LookupCost(u.Key); c != nil {
				usd := c.Cost(u.InputTokens, u.OutputTokens)
				cost += usd
				price = formatCost(usd)
			} else {
				unpriced = append(unpriced, u.Key)
			}
			fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
				truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, price)
		}
		fmt.Println(rule)

		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(cost))
		if len(unpriced) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func failureRate(u store.LLMUsageRow) float64 {
	if u.Calls == 0 {
		return 0
	}
	return 100 * float64(u.Failures) / float64(u.Calls)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (feedback, speech-eval, pronounce, tutor-chat)")
	llmListCmd.Flags().Bool("failed", false, "Show only failed requests")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
