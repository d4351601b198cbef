package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/tansive/tansive-pipedrive/internal/tasks"
	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

type runOptions struct {
	file         string
	ignoreErrors bool
	storageDir   string
}

// stepResult is the JSON form of one step's outcome.
type stepResult struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Result int    `json:"result"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run -f FILE",
		Short: "Run the steps in a YAML file",
		Long: `Run the steps in a YAML file. Each YAML document is one step:

  id: add-ada
  type: pipedrive.persons.Create
  version: "^0.1"
  params:
    name: Ada Lovelace
    emails:
      - value: ada@example.com

Steps run in file order and stop at the first failure unless -i is given.
Placeholders like {{ .ENV.NAME }} are filled from the environment or a .env
file next to the step file. Steps without apiToken use the configured token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := ParseMultiYAML(opts.file)
			if err != nil {
				return err
			}
			steps, err := ParseSteps(docs)
			if err != nil {
				return err
			}
			if len(steps) == 0 {
				return fmt.Errorf("no steps found in %s", opts.file)
			}

			rc, err := newRunContext(GetConfig(), opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, failed := runSteps(ctx, cmd.OutOrStdout(), tasks.DefaultRegistry(), rc, steps, opts.ignoreErrors)
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), results)
			}
			if failed > 0 {
				return ErrAlreadyHandled
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Step file to run")
	cmd.Flags().BoolVarP(&opts.ignoreErrors, "ignore-errors", "i", false, "Continue with the next step after a failure")
	cmd.Flags().StringVar(&opts.storageDir, "storage-dir", "", "Directory for stored task output, overriding the config")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newRunContext(cfg *Config, opts runOptions) (*tasks.RunContext, error) {
	rc := &tasks.RunContext{
		Logger:          log.Logger,
		DefaultAPIToken: cfg.Token(),
		DefaultAPIURL:   cfg.URL(),
	}
	dir := opts.storageDir
	if dir == "" {
		dir = cfg.StorageDir
	}
	if dir != "" {
		storage, err := tasks.NewFileStorage(dir, cfg.CompressStorage)
		if err != nil {
			return nil, err
		}
		rc.Storage = storage
	}
	return rc, nil
}

// runSteps runs steps in order and reports each outcome to w unless JSON
// output is selected. It returns the results and the number of failures.
func runSteps(ctx context.Context, w io.Writer, registry *tasks.Registry, rc *tasks.RunContext, steps []tasks.Step, ignoreErrors bool) ([]stepResult, int) {
	results := make([]stepResult, 0, len(steps))
	failed := 0
	for _, step := range steps {
		res := stepResult{ID: step.ID, Type: step.Type}
		out, err := registry.Run(ctx, rc, step)
		if err != nil {
			failed++
			res.Error = describeError(err)
		} else {
			res.Result = 1
			res.Value = out
		}
		results = append(results, res)
		if !jsonOutput {
			printStepResult(w, res)
		}
		if err != nil && (!ignoreErrors || ctx.Err() != nil) {
			break
		}
	}
	return results, failed
}

func printStepResult(w io.Writer, res stepResult) {
	if res.Result == 0 {
		errorLabel.Fprint(w, "[ERROR] ")
		fmt.Fprintf(w, "%s (%s): %s\n", res.ID, res.Type, res.Error)
		return
	}
	okLabel.Fprint(w, "[OK] ")
	fmt.Fprintf(w, "%s (%s)\n", res.ID, res.Type)
	out, err := renderYAML(res.Value)
	if err != nil {
		fmt.Fprintf(w, "  unable to render output: %v\n", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// renderYAML renders v through its JSON form so field names and decimals
// match the JSON output.
func renderYAML(v any) (string, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	y, err := yaml.JSONToYAML(j)
	if err != nil {
		return "", err
	}
	return string(y), nil
}

// describeError returns the message shown for a failed step. Remote
// failures show the API's reason rather than the raw body.
func describeError(err error) string {
	var remote *pipedrive.RemoteError
	if errors.As(err, &remote) {
		return fmt.Sprintf("pipedrive API request failed with status %d: %s", remote.StatusCode, remote.Message())
	}
	return err.Error()
}
