package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
)

var predictCmd = &cobra.Command{
	Use:   "predict [url]...",
	Short: "Classify URLs and show which rules fired",
	Long:  "Score each URL with the rule engine and print its classification as JSON, with the fired rules on stderr.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPredict,
}

func runPredict(cmd *cobra.Command, args []string) error {
	s := scorer.New()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, u := range args {
		c := s.Score(u)

		fmt.Fprintf(os.Stderr, "\n=== %s ===\n", truncate(u, 100))
		fmt.Fprintf(os.Stderr, "  Level:  %s (score %d)\n", c.RiskLevel, c.RiskScore)
		if len(c.Signals) > 0 {
			fmt.Fprintf(os.Stderr, "  Rules:  %s\n", strings.Join(c.Signals, ", "))
		}
		fmt.Fprintln(os.Stderr)

		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}
	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
