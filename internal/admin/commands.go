package admin

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/services"
	"github.com/spf13/cobra"
)

// ErrIntegrity is returned by verify when the store breaks an invariant.
var ErrIntegrity = errors.New("integrity check failed")

var (
	okLabel   = color.New(color.FgGreen).SprintFunc()
	failLabel = color.New(color.FgRed).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			db, rm, err := openStore(c)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := rm.RunMigrations(contextOf(c), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "%s schema is up to date\n", okLabel("OK"))
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	user.AddCommand(&cobra.Command{
		Use:   "add <id> <name>",
		Short: "Create a user; the password is read from the terminal",
		Args:  cobra.ExactArgs(2),
		RunE:  runUserAdd,
	})
	return user
}

func runUserAdd(c *cobra.Command, args []string) error {
	out := c.OutOrStdout()

	fmt.Fprint(out, "Enter password: ")
	pw, err := readPassword(stdinFd())
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	db, rm, err := openStore(c)
	if err != nil {
		return err
	}
	defer db.Close()

	users := services.NewUserService(db, rm, &config.Config{})
	u, err := users.Register(contextOf(c), args[0], args[1], string(pw))
	if err != nil {
		return fmt.Errorf("user add: %w", err)
	}
	fmt.Fprintf(out, "%s created user %s (%s)\n", okLabel("OK"), u.ID, u.Name)
	return nil
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check tag counts and active revision uniqueness",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			db, rm, err := openStore(c)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := services.VerifyIntegrity(contextOf(c), db, rm)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			printReport(c.OutOrStdout(), report)
			if !report.OK() {
				return ErrIntegrity
			}
			return nil
		},
	}
}

func printReport(w io.Writer, r *services.IntegrityReport) {
	if r.OK() {
		fmt.Fprintf(w, "%s tag counts and revision chains are consistent\n", okLabel("OK"))
		return
	}

	for _, m := range r.TagMismatches {
		fmt.Fprintf(w, "%s tag %d %q: count %d, active links %d\n",
			failLabel("MISMATCH"), m.TagID, m.Title, m.Count, m.ActiveLinks)
	}
	for _, h := range r.DuplicateDocuments {
		fmt.Fprintf(w, "%s document history %s has more than one active revision\n", warnLabel("DUPLICATE"), h)
	}
	for _, h := range r.DuplicateFiles {
		fmt.Fprintf(w, "%s file history %s has more than one active revision\n", warnLabel("DUPLICATE"), h)
	}
}
