package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run built-in URLs through the scorer",
	Long:  "Score a fixed set of benign and suspicious URLs and check each against its expected risk level.",
	RunE:  runSelftest,
}

type selftestCase struct {
	name     string
	url      string
	expected scorer.RiskLevel
}

var selftestCases = []selftestCase{
	{name: "trusted_https", url: "https://www.google.com/search", expected: scorer.RiskLow},
	{name: "trusted_github", url: "https://github.com/golang/go", expected: scorer.RiskLow},
	{name: "plain_https", url: "https://news.ycombinator.com", expected: scorer.RiskLow},
	{name: "plain_http", url: "http://intranet.local", expected: scorer.RiskLow},
	{name: "empty", url: "", expected: scorer.RiskLow},

	{name: "http_at_sign", url: "http://user@host.net", expected: scorer.RiskMedium},
	{name: "http_deep_path", url: "http://a.b.c.d.e/1/2/3/4", expected: scorer.RiskMedium},

	{name: "phishing_http", url: "http://secure-login.phishing-site.com/verify", expected: scorer.RiskHigh},
	{name: "malware_download", url: "http://free-malware.biz/setup.exe", expected: scorer.RiskHigh},
	{name: "hack_with_at", url: "https://hack.example.net@evil.io", expected: scorer.RiskHigh},
}

func runSelftest(cmd *cobra.Command, args []string) error {
	s := scorer.New()

	fmt.Fprintf(os.Stderr, "\n=== URL Guard Scorer Self-Test ===\n\n")

	passed := 0
	failed := 0

	for _, tc := range selftestCases {
		c := s.Score(tc.url)

		status := "PASS"
		if c.RiskLevel != tc.expected {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Fprintf(os.Stderr, "  [%s] %-20s expected=%-6s got=%-6s score=%d\n",
			status, tc.name, tc.expected, c.RiskLevel, c.RiskScore)
	}

	fmt.Fprintf(os.Stderr, "\n  Results: %d passed, %d failed, %d total\n\n",
		passed, failed, len(selftestCases))

	if failed > 0 {
		return fmt.Errorf("%d test(s) failed", failed)
	}
	return nil
}
