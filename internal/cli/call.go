package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Rrens/db-assistant/internal/tools"
)

func newCallCmd() *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one tool and print its output",
		Example: `  dbagent call list_tables
  dbagent call top_k_column_values --arg table=orders --arg column=status --arg k=3
  dbagent call run_query --arg "query=SELECT id, total FROM orders LIMIT 5"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseArgs(pairs)
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}

			result := a.Registry.Call(cmd.Context(), args[0], toolArgs)
			if !result.OK() {
				pterm.Error.WithWriter(cmd.ErrOrStderr()).Println(result.Text())
				return errToolFailed
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text())
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "arg", "a", nil, "Tool argument as name=value (repeatable)")
	return cmd
}

var errToolFailed = errors.New("tool call failed")

// parseArgs turns name=value pairs into tool arguments. Values stay text;
// the registry converts integer parameters.
func parseArgs(pairs []string) (tools.Args, error) {
	args := make(tools.Args, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected name=value", p)
		}
		args[name] = value
	}
	return args, nil
}
