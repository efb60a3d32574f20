package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/htseq-tools/countfilter/internal/filter"
	"github.com/htseq-tools/countfilter/internal/matrix"
	"github.com/htseq-tools/countfilter/internal/output"
	"github.com/htseq-tools/countfilter/internal/pipeline"
	"github.com/htseq-tools/countfilter/internal/runstore"
)

// rootOptions holds the flag values of the filter invocation.
type rootOptions struct {
	minCount        float64
	maxZeroCount    int
	minExpressed    int
	filterIdentical bool
	expression      float64
	metacountPath   string
	metacountAlias  string
	summaryRows     bool
	historyDB       string
	verbosity       int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "countfilter [flags] <counts-file>",
		Short:   "Filter HTSeq counts matrix files",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `Filter the gene rows of an HTSeq counts matrix by per-gene thresholds.

The following filters are applied to each gene, in order:
  * total read count (if --min-count is specified);
  * number of zero-count samples (if --max-zerocount is specified);
  * number of expressed samples (if --min-expressed is specified);
  * non-zero variance (if --filter-identical is specified).

The first failing filter rejects the gene. Rows whose identifier starts
with "__" are HTSeq metacounts: they bypass filtering and are either
extracted to a separate file (--metacount-file) or dropped.`,
		Example: `  # Keep genes with at least 10 total reads
  countfilter -m 10 counts.tsv > filtered.tsv

  # Extract metacounts with per-sample summaries
  countfilter -o meta.tsv -s counts.tsv > filtered.tsv

  # Read from stdin
  zcat counts.tsv.gz | countfilter -m 5 -i - > filtered.tsv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, args[0], opts)
		},
	}

	cobra.OnInitialize(initConfig)

	fs := cmd.Flags()
	fs.Float64VarP(&opts.minCount, "min-count", "m", 0, "Minimum total gene count")
	fs.IntVarP(&opts.maxZeroCount, "max-zerocount", "z", 0, "Maximum number of zero-count samples")
	fs.IntVarP(&opts.minExpressed, "min-expressed", "e", 0, "Minimum number of expressed samples")
	fs.BoolVarP(&opts.filterIdentical, "filter-identical", "i", false, "Filter out genes with zero variance (i.e. with all values identical)")
	fs.Float64VarP(&opts.expression, "expression", "x", pipeline.DefaultExpressionThreshold, "Minimum expression count")
	fs.StringVarP(&opts.metacountPath, "metacount-file", "o", "", "Extract metacounts (starting with double underscores) to file")
	fs.StringVar(&opts.metacountAlias, "output-metacounts", "", "Alias for --metacount-file")
	fs.BoolVarP(&opts.summaryRows, "summary", "s", false, "Include sample summary metacounts (requires --metacount-file)")
	fs.StringVar(&opts.historyDB, "history-db", "", "Record the run in a DuckDB history database")
	fs.CountVarP(&opts.verbosity, "verbose", "v", "Provide verbose output; supply multiple times to increase verbosity")
	fs.BoolP("version", "V", false, "Show version information")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// initConfig loads ~/.countfilter.yaml if present. Flags override the
// config file.
func initConfig() {
	viper.SetDefault("filter.expression", float64(pipeline.DefaultExpressionThreshold))

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	viper.SetConfigName(".countfilter")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
		}
	}
}

// newLogger builds a stderr console logger keyed to -v occurrences.
func newLogger(verbosity int) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	switch {
	case verbosity <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case verbosity == 1:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return cfg.Build()
}

func runFilter(cmd *cobra.Command, inputPath string, opts *rootOptions) error {
	if opts.metacountPath == "" {
		opts.metacountPath = opts.metacountAlias
	}
	if opts.summaryRows && opts.metacountPath == "" {
		return &usageError{msg: "--summary requires --metacount-file"}
	}

	// Config file supplies defaults for flags the user did not set
	if !cmd.Flags().Changed("expression") {
		opts.expression = viper.GetFloat64("filter.expression")
	}
	if opts.historyDB == "" {
		opts.historyDB = viper.GetString("history.db")
	}

	logger, err := newLogger(opts.verbosity)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer logger.Sync()

	cfg := filter.Config{FilterIdentical: opts.filterIdentical}
	if cmd.Flags().Changed("min-count") {
		cfg.MinCount = &opts.minCount
	}
	if cmd.Flags().Changed("max-zerocount") {
		cfg.MaxZeroCount = &opts.maxZeroCount
	}
	if cmd.Flags().Changed("min-expressed") {
		cfg.MinExpressed = &opts.minExpressed
	}

	parser, err := matrix.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()
	logger.Info("reading counts", zap.String("path", inputPath))

	primary := output.NewMatrixWriter(os.Stdout)

	var meta *output.MetacountWriter
	if opts.metacountPath != "" {
		f, err := os.Create(opts.metacountPath)
		if err != nil {
			return fmt.Errorf("create metacount file: %w", err)
		}
		defer f.Close()
		meta = output.NewMetacountWriter(f, parser.Samples())
		logger.Info("writing metacounts", zap.String("path", opts.metacountPath))
	}

	runner := pipeline.New(cfg)
	runner.SetLogger(logger)
	runner.SetExpressionThreshold(opts.expression)
	runner.SetSummary(opts.summaryRows)

	res, err := runner.Run(parser, primary, meta)
	if err != nil {
		return err
	}

	if opts.historyDB != "" {
		if err := recordRun(opts, inputPath, cfg, res); err != nil {
			return err
		}
	}

	return nil
}

// recordRun stores the completed run in the history database.
func recordRun(opts *rootOptions, inputPath string, cfg filter.Config, res *pipeline.Result) error {
	store, err := runstore.Open(opts.historyDB)
	if err != nil {
		return err
	}
	defer store.Close()

	run := runstore.Run{
		Input:           inputPath,
		FilterIdentical: cfg.FilterIdentical,
		Expression:      opts.expression,
		TotalGenes:      int64(res.TotalGenes),
		PassedGenes:     int64(res.PassedGenes),
		Metacounts:      int64(res.Metacounts),
	}
	if cfg.MinCount != nil {
		run.MinCount = cfg.MinCount
	}
	if cfg.MaxZeroCount != nil {
		v := int64(*cfg.MaxZeroCount)
		run.MaxZeroCount = &v
	}
	if cfg.MinExpressed != nil {
		v := int64(*cfg.MinExpressed)
		run.MinExpressed = &v
	}

	if _, err := store.RecordRun(run, res.Samples); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}
