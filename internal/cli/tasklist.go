package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"sigs.k8s.io/yaml"

	"github.com/tansive/tansive-pipedrive/internal/tasks"
)

var titleCase = cases.Title(language.English)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listTasks(cmd.OutOrStdout(), tasks.DefaultRegistry())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "describe TYPE",
		Short: "Show the parameters a task accepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describeTask(cmd.OutOrStdout(), tasks.DefaultRegistry(), args[0])
		},
	})
	return cmd
}

// taskGroup returns the entity part of a task type, e.g. "persons" for
// "pipedrive.persons.Create".
func taskGroup(typ string) string {
	parts := strings.Split(typ, ".")
	if len(parts) < 3 {
		return typ
	}
	return parts[1]
}

func listTasks(w io.Writer, registry *tasks.Registry) {
	if jsonOutput {
		out := make([]map[string]string, 0)
		for _, typ := range registry.Types() {
			t, _ := registry.Lookup(typ)
			out = append(out, map[string]string{"type": typ, "description": t.Description()})
		}
		printJSON(w, out)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	group := ""
	for _, typ := range registry.Types() {
		t, _ := registry.Lookup(typ)
		if g := taskGroup(typ); g != group {
			if group != "" {
				fmt.Fprintln(tw)
			}
			group = g
			fmt.Fprintf(tw, "%s:\n", titleCase.String(g))
		}
		fmt.Fprintf(tw, "  %s\t%s\n", typ, t.Description())
	}
	tw.Flush()
}

func describeTask(w io.Writer, registry *tasks.Registry, typ string) error {
	t, err := registry.Lookup(typ)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(w, map[string]any{
			"type":        t.Type(),
			"description": t.Description(),
			"schema":      jsoniter.RawMessage(t.Schema()),
		})
		return nil
	}
	schema, err := yaml.JSONToYAML([]byte(t.Schema()))
	if err != nil {
		return fmt.Errorf("unable to render schema: %w", err)
	}
	fmt.Fprintf(w, "Type: %s\n", t.Type())
	fmt.Fprintf(w, "Description: %s\n", t.Description())
	fmt.Fprintln(w, "Parameters:")
	for _, line := range strings.Split(strings.TrimRight(string(schema), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}
