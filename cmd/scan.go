package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/audit"
	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

var scanConcurrency int

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Classify every URL in a file",
	Long:  "Read one URL per line (\"-\" for stdin), classify them concurrently and print one JSON line per URL followed by a summary on stderr.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", service.DefaultBatchLimit, "Number of URLs scored in parallel")
}

func runScan(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening url list: %w", err)
		}
		defer f.Close()
		in = f
	}

	urls, err := readURLs(in)
	if err != nil {
		return err
	}

	// Scoring does not touch the model; an unloaded manager is enough.
	svc := service.New(model.NewManager(nil), audit.NopLogger(), service.Options{
		BatchLimit: scanConcurrency,
	})
	results, err := svc.PredictBatch(cmd.Context(), urls)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	levels := map[scorer.RiskLevel]int{}
	malicious := 0
	for _, c := range results {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
		levels[c.RiskLevel]++
		if c.IsMalicious {
			malicious++
		}
	}

	fmt.Fprintf(os.Stderr, "\n  Scanned: %d urls, %d malicious\n", len(results), malicious)
	fmt.Fprintf(os.Stderr, "  Levels:  %s=%d %s=%d %s=%d\n\n",
		scorer.RiskHigh, levels[scorer.RiskHigh],
		scorer.RiskMedium, levels[scorer.RiskMedium],
		scorer.RiskLow, levels[scorer.RiskLow])
	return nil
}

// readURLs returns the non-blank, non-comment lines of r.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading url list: %w", err)
	}
	return urls, nil
}
