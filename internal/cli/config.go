package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

const configVersion = "0.1.0"

// Environment variables that take precedence over the config file.
const (
	EnvAPIToken = "PIPEDRIVE_API_TOKEN"
	EnvAPIURL   = "PIPEDRIVE_API_URL"
)

// Config represents the configuration for the Pipedrive CLI
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// APIURL is the API root; empty means the public Pipedrive API
	APIURL string `yaml:"api_url,omitempty"`
	// APIToken is used by steps that do not set apiToken
	APIToken string `yaml:"api_token,omitempty"`
	// LogLevel is the default log level
	LogLevel string `yaml:"log_level,omitempty"`
	// StorageDir receives the output of steps with fetchType STORE
	StorageDir string `yaml:"storage_dir,omitempty"`
	// CompressStorage snappy-compresses stored output
	CompressStorage bool `yaml:"compress_storage,omitempty"`
}

var config *Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/pipedrive on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "pipedrive", DefaultConfigFile), nil
}

// LoadConfig reads and validates the configuration in file.
func LoadConfig(file string) (*Config, error) {
	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	if err := c.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", file, err)
	}
	return &c, nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if config == nil {
		return &Config{Version: configVersion}
	}
	return config
}

// WriteConfig writes the configuration to file, readable by the owner only.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), 0o700)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig validates the configuration
func (cfg *Config) ValidateConfig() error {
	if cfg.APIURL != "" && !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return errors.New("api_url must start with http:// or https://")
	}
	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// Token returns the API token, preferring the environment.
func (cfg *Config) Token() string {
	if v := os.Getenv(EnvAPIToken); v != "" {
		return v
	}
	return cfg.APIToken
}

// URL returns the normalized API root, preferring the environment.
func (cfg *Config) URL() string {
	if v := os.Getenv(EnvAPIURL); v != "" {
		return pipedrive.NormalizeBaseURL(v)
	}
	return pipedrive.NormalizeBaseURL(cfg.APIURL)
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", 8)
}

func newConfigCmd() *cobra.Command {
	var (
		url        string
		token      string
		storageDir string
		compress   bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `Manage CLI configuration such as the API token and URL.

Without flags the current configuration is printed. Flags update the
configuration file, leaving unspecified settings unchanged. The global
--log-level flag is stored as the default log level.

Examples:
  pipedrive config --token 0123456789abcdef
  pipedrive config --url https://mycompany.pipedrive.com/api/v2
  pipedrive config --storage-dir ./out --compress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *GetConfig()
			flags := cmd.Flags()
			changed := false
			if flags.Changed("url") {
				cfg.APIURL = strings.TrimRight(strings.TrimSpace(url), "/")
				changed = true
			}
			if flags.Changed("token") {
				cfg.APIToken = strings.TrimSpace(token)
				changed = true
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
				changed = true
			}
			if flags.Changed("storage-dir") {
				cfg.StorageDir = storageDir
				changed = true
			}
			if flags.Changed("compress") {
				cfg.CompressStorage = compress
				changed = true
			}

			if changed {
				cfg.Version = configVersion
				if err := cfg.ValidateConfig(); err != nil {
					return err
				}
				if err := cfg.WriteConfig(configFile); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				config = &cfg
			}
			printConfig(cmd, &cfg)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Set the API URL (default "+pipedrive.DefaultBaseURL+")")
	cmd.Flags().StringVar(&token, "token", "", "Set the API token")
	cmd.Flags().StringVar(&storageDir, "storage-dir", "", "Set the directory for stored task output")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress stored task output")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *GetConfig()
			cfg.APIToken = ""
			if err := cfg.WriteConfig(configFile); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			config = &cfg

			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]int{"result": 1})
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "API token removed from " + configFile)
			}
			return nil
		},
	})
	return cmd
}

func printConfig(cmd *cobra.Command, cfg *Config) {
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"api_url":          cfg.URL(),
			"api_token":        maskToken(cfg.Token()),
			"log_level":        cfg.LogLevel,
			"storage_dir":      cfg.StorageDir,
			"compress_storage": cfg.CompressStorage,
			"config_file":      configFile,
		})
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API URL: %s\n", cfg.URL())
	fmt.Fprintf(cmd.OutOrStdout(), "API token: %s\n", maskToken(cfg.Token()))
	if cfg.LogLevel != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Log level: %s\n", cfg.LogLevel)
	}
	if cfg.StorageDir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Storage: %s (compressed: %t)\n", cfg.StorageDir, cfg.CompressStorage)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", configFile)
}
