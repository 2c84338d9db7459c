// Package main provides the vcfparse command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries the exit code of a failure raised after flag parsing.
// Errors cobra returns on its own are usage errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fatal(err error) error {
	return &exitError{code: ExitError, err: err}
}

func usage(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(viper.New(), stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(stderr, "Run 'vcfparse --help' for usage.\n")
		return ExitUsage
	}
	return ExitSuccess
}

// options holds the flags that are not bound to settings keys.
type options struct {
	input       string
	columns     string
	listColumns bool
	preferred   string
	known       string
	ntc         string
	bed         string
	bedFolder   string
	sample      string
	duckdb      string
	settings    string
}

func newRootCmd(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "vcfparse -i <input.vcf> [flags]",
		Short: "Convert an annotated VCF into a tab-delimited variant report",
		Long: `vcfparse flattens a VEP-annotated VCF into a tab-delimited variant report with
one row per RefSeq transcript. The report can be annotated with a preferred
transcript list, a known-variants catalogue and a no-template control, and
narrowed to the variants overlapping one or more BED files.`,
		Example: `  vcfparse -i sample.vcf -o reports/
  vcfparse -i sample.vcf -c columns.txt -t preferred.txt --strictness high
  vcfparse -i sample.vcf -k known.vcf -B panels/
  vcfparse -i sample.vcf --list-columns`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, opts.settings)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v.GetString("log.level"), stderr)
			if err != nil {
				return usage("invalid log level: %v", err)
			}
			defer logger.Sync()

			return runReport(cmd.Context(), v, opts, stdout, logger)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("vcfparse version {{.Version}}\n")

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Annotated input VCF (use '-' for stdin)")
	f.StringP("output", "o", "", "Output directory (default: current directory)")
	f.StringVarP(&opts.columns, "config", "c", "", "Column descriptor file")
	f.BoolVar(&opts.listColumns, "list-columns", false, "List the columns the input can resolve and exit")
	f.StringVarP(&opts.preferred, "preferred-transcripts", "t", "", "Preferred transcripts file")
	f.String("strictness", "low", "Preferred transcript matching: high (exact) or low (version-insensitive)")
	f.StringVarP(&opts.known, "known-variants", "k", "", "Known variants VCF with a Classification INFO key")
	f.StringVarP(&opts.ntc, "ntc", "n", "", "No-template control VCF")
	f.StringVarP(&opts.bed, "bed", "b", "", "BED file to filter the report by")
	f.StringVarP(&opts.bedFolder, "bed-folder", "B", "", "Folder of BED files, one filtered report each")
	f.Bool("filter-pass", false, "Only report variants that passed all filters")
	f.StringVar(&opts.sample, "sample", "", "Sample to report (default: first sample in the VCF)")
	f.String("transcript-prefix", "NM", "Transcript identifier prefix of reported transcripts")
	f.String("intersect-engine", "tree", "BED intersection engine: tree or duckdb")
	f.StringVar(&opts.duckdb, "duckdb", "", "Also store finished reports in this DuckDB database")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.settings, "settings", "", "Settings file (default: ~/.vcfparse.yaml)")

	f.SetNormalizeFunc(dashedFlagNames)

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("bed", "bed-folder")

	for key, flag := range map[string]string{
		"output":            "output",
		"strictness":        "strictness",
		"filter_pass":       "filter-pass",
		"transcript_prefix": "transcript-prefix",
		"intersect_engine":  "intersect-engine",
		"log.level":         "log-level",
	} {
		v.BindPFlag(key, f.Lookup(flag))
	}

	cmd.AddCommand(newConfigCmd(v, stdout))

	return cmd
}

// dashedFlagNames accepts underscore spellings such as --filter_pass.
func dashedFlagNames(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// initConfig reads the settings file and VCFPARSE_ environment variables.
// An explicit settings file must exist; the default one is optional.
func initConfig(v *viper.Viper, settings string) error {
	v.SetDefault("columns.sample", "SampleID")
	v.SetDefault("columns.variant", "Variant")
	v.SetDefault("columns.transcript", "Feature")
	v.SetDefault("columns.preferred", "Preferred")
	v.SetDefault("columns.classification", "Classification")

	v.SetEnvPrefix("VCFPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if settings != "" {
		v.SetConfigFile(settings)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.SetConfigFile(filepath.Join(home, settingsName))
	return readOptional(v)
}

// newLogger builds a console logger on w.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}
