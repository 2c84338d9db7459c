package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const settingsName = ".vcfparse.yaml"

func newConfigCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcfparse settings",
		Long:  "Show, get, or set settings. Settings are stored in ~/" + settingsName + ".",
		Example: `  vcfparse config                               # show all settings
  vcfparse config set strictness high           # exact transcript matching
  vcfparse config set columns.variant VariantID # rename the variant column
  vcfparse config get strictness                # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(v, stdout)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(v, stdout, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(v, stdout, args[0])
		},
	})

	return cmd
}

func runConfigShow(v *viper.Viper, stdout io.Writer) error {
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fatal(fmt.Errorf("marshal settings: %w", err))
	}
	fmt.Fprint(stdout, string(out))
	return nil
}

// runConfigSet persists only the settings file contents plus the new key,
// so defaults and environment values are not written back.
func runConfigSet(v *viper.Viper, stdout io.Writer, key, value string) error {
	file := v.ConfigFileUsed()
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fatal(fmt.Errorf("determine home directory: %w", err))
		}
		file = filepath.Join(home, settingsName)
	}

	stored := viper.New()
	stored.SetConfigFile(file)
	if err := readOptional(stored); err != nil {
		return fatal(err)
	}

	switch value {
	case "true", "yes", "on":
		stored.Set(key, true)
	case "false", "no", "off":
		stored.Set(key, false)
	default:
		stored.Set(key, value)
	}

	if err := stored.WriteConfigAs(file); err != nil {
		return fatal(fmt.Errorf("write settings: %w", err))
	}

	fmt.Fprintf(stdout, "Set %s = %s in %s\n", key, value, file)
	return nil
}

func runConfigGet(v *viper.Viper, stdout io.Writer, key string) error {
	if !v.IsSet(key) {
		return fatal(fmt.Errorf("key %q is not set", key))
	}
	fmt.Fprintln(stdout, v.Get(key))
	return nil
}

// readOptional reads v's settings file, treating a missing file as empty.
func readOptional(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read settings: %w", err)
}
