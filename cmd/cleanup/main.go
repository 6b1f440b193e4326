/**
 * @description
 * Deletes the users and accounts a harness run created, as recorded in its
 * report file, so usernames and account data can be reused.
 *
 * Usage:
 *   cleanup [-yes] [-env staging] [-config-dir configs] <report.json>
 *
 * Example:
 *   cleanup reports/report_20250927_101500.000.json
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 */
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/cleanup"
	"github.com/transfa/bank-api-harness/internal/config"
	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		env       = flag.String("env", "", "environment name (default $HARNESS_ENV or test)")
		configDir = flag.String("config-dir", "configs", "directory holding application*.properties")
		yes       = flag.Bool("yes", false, "skip the confirmation prompt")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cleanup [-yes] [-env name] [-config-dir dir] <report.json>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	reportPath := flag.Arg(0)

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	log, _ := logger.New("warn")
	defer log.Sync()

	_, settings, err := config.Load(config.Options{Dir: *configDir, Env: *env, Logger: log})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	rep, err := report.ReadFile(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read report: %v\n", err)
		os.Exit(2)
	}
	created := rep.Created()
	if created.Empty() {
		fmt.Println("Report lists no created resources, nothing to do.")
		return
	}

	target, _ := settings.Target()
	fmt.Printf("Run %s (%s) against %s created:\n", rep.RunID, rep.Env, rep.Target)
	fmt.Printf("  Users:        %d\n", len(created.UserIDs))
	fmt.Printf("  Accounts:     %d\n", len(created.AccountIDs))
	fmt.Printf("  Transactions: %d (not deletable, kept)\n", len(created.TransactionIDs))
	if target != rep.Target {
		fmt.Printf("Warning: configured target %s differs from the report's target.\n", target)
	}

	if !*yes {
		fmt.Printf("\nDelete these resources from %s? (yes/no): ", target)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("Cleanup cancelled.")
			return
		}
	}

	client, err := app.NewBankClient(settings, log, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build client: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary := cleanup.New(client, log).Run(ctx, created)
	fmt.Printf("Deleted %d, already gone %d, kept %d transactions.\n", summary.Deleted, summary.Missing, summary.Retained)
	if len(summary.Errors) > 0 {
		for _, e := range summary.Errors {
			log.Error("cleanup error", zap.Error(e))
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
		os.Exit(1)
	}
}
