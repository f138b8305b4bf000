package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/tidelist/internal/store"
	"github.com/mkarlsen/tidelist/internal/todo"
)

// ItemsOptions holds flags for the items command.
type ItemsOptions struct {
	*RootOptions
	Database string
	Filter   string
}

// NewItemsCommand creates the items command.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "items <email>",
		Short: "List an account's items",
		Long: `List an account's items, newest first.

Example:
  tidelist items --db ./tidelist.db alice@example.com
  tidelist items --db ./tidelist.db --filter active --format json alice@example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listItems(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "all", "filter items (all|active|completed)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// itemList is the success payload for items.
type itemList struct {
	Email string      `json:"email"`
	Items []todo.Item `json:"items"`
}

func (l itemList) String() string {
	if len(l.Items) == 0 {
		return fmt.Sprintf("%s has no matching items", l.Email)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d items)\n", l.Email, len(l.Items))
	for i, it := range l.Items {
		mark := " "
		if it.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s  %s", mark, it.Text, it.ID)
		if i < len(l.Items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func listItems(opts *ItemsOptions, email string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	mode, err := todo.ParseFilterMode(opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --filter", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	acct, err := st.AccountByEmail(cmd.Context(), email)
	if store.IsNotFound(err) {
		_ = out.Error("auth", fmt.Sprintf("no account for %s", email))
		return WrapExitError(ExitFailure, "account not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "account lookup failed", err)
	}

	items, err := st.ItemsByOwner(cmd.Context(), acct.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing items failed", err)
	}

	return out.Success(itemList{Email: acct.Email, Items: todo.Visible(items, mode)})
}
