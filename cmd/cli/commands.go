package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/auth"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/logger"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/jobs"
)

var errLedgerInconsistent = errors.New("ledger is inconsistent")

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check double-entry and accounting equation consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if _, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/ledger/consistency", nil, &report, http.StatusConflict); err != nil {
				return err
			}
			return printConsistency(cmd.OutOrStdout(), &report)
		},
	})

	var enqueue bool
	var redisURL string
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored balances with recomputed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				return enqueueReconcile(cmd.Context(), cmd.OutOrStdout(), redisURL, ownerFlag(cmd))
			}
			var report dto.ReconciliationResponse
			if _, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/ledger/reconciliation", nil, &report); err != nil {
				return err
			}
			return printReconciliation(cmd.OutOrStdout(), &report)
		},
	}
	reconcile.Flags().BoolVar(&enqueue, "enqueue", false, "Queue a background reconciliation instead of running it over the API")
	reconcile.Flags().StringVar(&redisURL, "redis-url", envOr("REDIS_URL", "redis://localhost:6379"), "Redis URL of the job queue")
	reconcile.Flags().String("owner", "", "Owner to reconcile when enqueuing (empty means all owners)")
	cmd.AddCommand(reconcile)

	return cmd
}

func ownerFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("owner")
	return v
}

func enqueueReconcile(ctx context.Context, w io.Writer, redisURL, ownerID string) error {
	opts, err := jobs.ParseRedisURL(redisURL)
	if err != nil {
		return err
	}
	client := jobs.NewClient(opts)
	defer client.Close()

	info, err := client.EnqueueReconcile(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to enqueue reconciliation: %w", err)
	}
	fmt.Fprintf(w, "Reconciliation queued: %s (queue %s)\n", info.ID, info.Queue)
	return nil
}

func printConsistency(w io.Writer, r *dto.ConsistencyResponse) error {
	fmt.Fprintf(w, "Total debits:  %s\n", domain.FormatAmount(r.TotalDebits, currency))
	fmt.Fprintf(w, "Total credits: %s\n", domain.FormatAmount(r.TotalCredits, currency))
	fmt.Fprintf(w, "Double entry:  %s\n", okText(r.DoubleEntryHolds))
	fmt.Fprintf(w, "Equation:      %s (difference %s)\n", okText(r.EquationHolds), r.EquationDifference.String())
	for _, id := range r.UnbalancedEntries {
		fmt.Fprintf(w, "  unbalanced entry %s\n", id)
	}

	if !r.Consistent {
		fmt.Fprintln(w, "Consistency check FAILED")
		return errLedgerInconsistent
	}
	fmt.Fprintln(w, "Consistency check PASSED")
	return nil
}

func printReconciliation(w io.Writer, r *dto.ReconciliationResponse) error {
	fmt.Fprintf(w, "Accounts reconciled: %d/%d\n", r.ReconciledAccounts, r.TotalAccounts)
	for _, d := range r.Discrepancies {
		fmt.Fprintf(w, "  %-12s recorded %s calculated %s difference %s\n",
			d.Code,
			domain.FormatAmount(d.RecordedBalance, currency),
			domain.FormatAmount(d.CalculatedBalance, currency),
			d.Difference.String(),
		)
	}
	if r.Ledger != nil && !r.Ledger.Consistent {
		fmt.Fprintln(w, "Ledger consistency FAILED")
	}
	if !r.Healthy {
		return errLedgerInconsistent
	}
	fmt.Fprintln(w, "Reconciliation PASSED")
	return nil
}

func okText(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAILED"
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path <account-id>",
		Short: "Print the hierarchy path of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.PathResponse
			if _, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/path", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tree <account-id>",
		Short: "Print an account and all of its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient()
			id := url.PathEscape(args[0])

			var root dto.AccountResponse
			if _, err := client.do(cmd.Context(), http.MethodGet, "/accounts/"+id, nil, &root); err != nil {
				return err
			}
			var children dto.ListAccountsResponse
			if _, err := client.do(cmd.Context(), http.MethodGet, "/accounts/"+id+"/children?recursive=true", nil, &children); err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), &root, children.Accounts)
			return nil
		},
	})

	return cmd
}

func printTree(w io.Writer, root *dto.AccountResponse, descendants []*dto.AccountResponse) {
	line := func(a *dto.AccountResponse) {
		indent := strings.Repeat("  ", max(a.Level-root.Level, 0))
		marker := ""
		if !a.IsActive {
			marker = " (inactive)"
		}
		fmt.Fprintf(w, "%s%s %s  %s%s\n", indent, a.Code, a.Name, domain.FormatAmount(a.Balance, currency), marker)
	}
	line(root)
	for _, a := range descendants {
		line(a)
	}
}

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Journal entry lifecycle",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <entry-id>",
		Short: "Report whether an entry can be posted or voided",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.EntryCheckResponse
			if _, err := newAPIClient().do(cmd.Context(), http.MethodGet, entryPath(args[0], "check"), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	})

	cmd.AddCommand(entryActionCmd("post", "Post a draft entry", nil))
	cmd.AddCommand(entryActionCmd("duplicate", "Copy an entry into a new draft", nil))

	var reason string
	void := entryActionCmd("void", "Void a posted entry", func() any {
		return dto.VoidEntryRequest{Reason: reason}
	})
	void.Flags().StringVar(&reason, "reason", "", "Why the entry is voided")
	_ = void.MarkFlagRequired("reason")
	cmd.AddCommand(void)

	return cmd
}

func entryActionCmd(action, short string, body func() any) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <entry-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if body != nil {
				payload = body()
			}
			var entry dto.EntryResponse
			if _, err := newAPIClient().do(cmd.Context(), http.MethodPost, entryPath(args[0], action), payload, &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (debits %s, credits %s)\n",
				entry.ID, entry.Number, entry.State,
				domain.FormatAmount(entry.TotalDebits, currency),
				domain.FormatAmount(entry.TotalCredits, currency),
			)
			return nil
		},
	}
}

func entryPath(id, action string) string {
	return "/entries/" + url.PathEscape(id) + "/" + action
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if migrationsPath == "" {
				migrationsPath = cfg.MigrationsPath
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")

	migrator := func(cmd *cobra.Command) *postgres.Migrator {
		l := logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
		return postgres.NewMigrator(databaseURL, migrationsPath, l)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd).Up()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd).Down()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, dirty, err := migrator(cmd).Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func tokenCmd() *cobra.Command {
	var role, secret string
	ttl := 24 * time.Hour

	cmd := &cobra.Command{
		Use:   "token <owner-id>",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			signed, err := auth.NewJWTManager(secret, ttl).Generate(domain.Principal{OwnerID: args[0], Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleBookkeeper), "Role claim: admin, bookkeeper or viewer")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", ttl, "Token lifetime")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
