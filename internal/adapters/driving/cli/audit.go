package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check index and fingerprint store consistency",
	Long: `Compares the fingerprint store against the vector index in both
directions. Reports points the store does not know about and points
the store expects but the index lacks. Read-only, mutates nothing.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	e, err := buildEngine("")
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	warnings, err := e.reconciler.Audit(ctx)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if len(warnings) == 0 {
		cmd.Println("Index and fingerprint store are consistent.")
		return nil
	}

	cmd.Printf("Found %d inconsistencies:\n", len(warnings))
	for _, w := range warnings {
		cmd.Printf("  %s\n", w)
	}
	return nil
}
