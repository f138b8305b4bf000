package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/tidelist/internal/identity"
	"github.com/mkarlsen/tidelist/internal/store"
)

// UserAddOptions holds flags for the useradd command.
type UserAddOptions struct {
	*RootOptions
	Database string
	Password string
}

// NewUserAddCommand creates the useradd command.
func NewUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "useradd <email>",
		Short: "Create an account directly in the database",
		Long: `Create an account directly in the database, bypassing the web signup.

Useful for provisioning the first account on a fresh install, or for
scripted setups.

Example:
  tidelist useradd --db ./tidelist.db --password hunter22 alice@example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addUser(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password for the new account (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// userAddResult is the success payload for useradd.
type userAddResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r userAddResult) String() string {
	return fmt.Sprintf("created account %s (%s)", r.Email, r.ID)
}

func addUser(opts *UserAddOptions, email string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ident := identity.New(st)
	p, err := ident.CreateAccount(cmd.Context(), email, opts.Password)
	if err != nil {
		var ae *identity.AuthError
		if errors.As(err, &ae) {
			_ = out.Error("auth", ae.Message())
			return WrapExitError(ExitFailure, "account not created", err)
		}
		return WrapExitError(ExitCommandError, "account not created", err)
	}

	return out.Success(userAddResult{ID: p.ID, Email: p.Email})
}
