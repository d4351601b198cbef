package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
	"github.com/tansive/tansive-pipedrive/internal/tasks"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// Global flags
	jsonOutput bool
	configFile string
	logLevel   string
)

var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipedrive [command] [flags]",
		Short: "Pipedrive CLI - Run Pipedrive tasks from YAML step files",
		Long: `Pipedrive CLI runs Pipedrive CRM operations described in YAML step files.
Each step names a task type such as pipedrive.persons.Create and its parameters.
The API token and URL can be given per step or stored with "pipedrive config".

Examples:
  # Store the API token
  pipedrive config --token $PIPEDRIVE_API_TOKEN

  # Run the steps in a file
  pipedrive run -f steps.yaml

  # List the available tasks
  pipedrive tasks

  # Show the parameters of a task
  pipedrive tasks describe pipedrive.deals.Create`,
		PersistentPreRunE: preRunHandlePersistents,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// Set up persistent flags
	cmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	cmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "Log level (debug, info, warn, error)")

	// Add commands
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newTasksCmd())

	cmd.SilenceErrors = true // Prevent Cobra from printing the error
	cmd.SilenceUsage = true  // Prevent Cobra from printing usage on error
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, ErrAlreadyHandled) {
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(os.Stdout, map[string]string{
				"error": err.Error(),
			})
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// preRunHandlePersistents loads the configuration file, if there is one, and
// sets up logging. A missing configuration file is not an error: steps may
// carry their own credentials.
func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := LoadConfig(configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &Config{Version: configVersion}
	case err != nil:
		return err
	}
	config = cfg

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level == "" {
		level = "warn"
	}
	if err := logtrace.InitConsoleLogger(level, !jsonOutput); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the Pipedrive CLI",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"version":     tasks.Version,
					"config_file": configFile,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "pipedrive CLI v%s\n", tasks.Version)
				fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", configFile)
			}
		},
	}
}

// printJSON prints data as indented JSON to w
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(w, string(jsonData))
}
