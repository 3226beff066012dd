package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyWorkDir        = "work_dir"
	cfgKeyAllowSelfLoops = "allow_self_loops"
	cfgKeyLogFile        = "log_file"
	cfgKeyLogLevel       = "log_level"

	defaultLogLevel = "warn"
)

const configHeader = `# nodeflow configuration
#
# work_dir:         base directory for per-session working directories
#                   (default: NODEFLOW_WORK_DIR, then the OS temp directory)
# allow_self_loops: accept links whose source and target are the same node
# log_file:         write logs to this file with rotation instead of stderr
# log_level:        debug, info, warn or error

`

// settings holds the values read from config.yaml.
type settings struct {
	WorkDir        string `yaml:"work_dir,omitempty" json:"work_dir,omitempty"`
	AllowSelfLoops bool   `yaml:"allow_self_loops" json:"allow_self_loops"`
	LogFile        string `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	LogLevel       string `yaml:"log_level" json:"log_level"`
}

func defaultSettings() settings {
	return settings{LogLevel: defaultLogLevel}
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// directory or file is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyAllowSelfLoops, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func settingsFrom(v *viper.Viper) settings {
	return settings{
		WorkDir:        v.GetString(cfgKeyWorkDir),
		AllowSelfLoops: v.GetBool(cfgKeyAllowSelfLoops),
		LogFile:        v.GetString(cfgKeyLogFile),
		LogLevel:       v.GetString(cfgKeyLogLevel),
	}
}

// writeConfigFile writes s to configDir/config.yaml. Unless force is set an
// existing file is left untouched and written reports false.
func writeConfigFile(configDir string, s settings, force bool) (written bool, err error) {
	path := filepath.Join(configDir, configFileExt)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !os.IsNotExist(err) {
			return false, fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the nodeflow configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.configDir, configFileExt)
			written, err := writeConfigFile(a.configDir, defaultSettings(), force)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonMode {
				return writeJSON(cmd.OutOrStdout(), a.settings)
			}
			data, err := yaml.Marshal(&a.settings)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.configDir, data)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
