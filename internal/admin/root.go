// Package admin implements kokotoctl, the operator CLI for a kokoto store:
// schema migrations, account bootstrap and integrity verification.
package admin

import (
	"context"
	"database/sql"
	"os"

	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	flagDriver = "driver"
	flagDSN    = "dsn"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var stdinFd = func() int { return int(os.Stdin.Fd()) }

// NewRootCommand builds the kokotoctl command tree. Database flags default to
// the server defaults.
func NewRootCommand() *cobra.Command {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	root := &cobra.Command{
		Use:           "kokotoctl",
		Short:         "Administer a kokoto content store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(flagDriver, defaults.DatabaseDriver, "database driver (pgx or sqlite)")
	root.PersistentFlags().String(flagDSN, defaults.DatabaseDSN, "database connection string")

	root.AddCommand(newMigrateCmd(), newUserCmd(), newVerifyCmd())
	return root
}

// openStore opens the database named by the persistent flags.
func openStore(c *cobra.Command) (*sql.DB, repomanager.RepositoryManager, error) {
	driver, _ := c.Flags().GetString(flagDriver)
	dsn, _ := c.Flags().GetString(flagDSN)

	rm, err := repomanager.NewRepositoryManager(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := repomanager.Open(contextOf(c), driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, rm, nil
}

func contextOf(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
