package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Rrens/db-assistant/internal/tools"
)

func newToolsCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch tools.Group(group) {
			case "", tools.GroupSchema, tools.GroupQuery, tools.GroupAnalysis, tools.GroupVisual:
			default:
				return fmt.Errorf("unknown group %q", group)
			}

			// Listing never connects, so an unconfigured database is fine here.
			registry := tools.NewRegistry(tools.New(nil, nil, tools.Options{}))
			return renderSpecs(cmd.OutOrStdout(), registry.Specs(tools.Group(group)))
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Only list tools in this group (schema, query, analysis, visual)")
	return cmd
}

func renderSpecs(w io.Writer, specs []tools.Spec) error {
	data := pterm.TableData{{"Tool", "Group", "Arguments", "Description"}}
	for _, s := range specs {
		data = append(data, []string{s.Name, string(s.Group), paramSummary(s.Params), s.Description})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func paramSummary(params []tools.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		switch {
		case p.Required:
			parts = append(parts, p.Name)
		case p.Default != nil:
			parts = append(parts, fmt.Sprintf("[%s=%v]", p.Name, p.Default))
		default:
			parts = append(parts, "["+p.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}
