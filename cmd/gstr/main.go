package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RowanDark/gstr/config"
	"github.com/RowanDark/gstr/filters"
	"github.com/RowanDark/gstr/ingest"
	"github.com/RowanDark/gstr/intern"
	"github.com/RowanDark/gstr/logging"
	"github.com/RowanDark/gstr/metrics"
	"github.com/RowanDark/gstr/output"
	"github.com/RowanDark/gstr/stats"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfg *config.Config

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gstr [files...]",
		Short: "gstr interns text corpora and reports how much storage deduplication saves.",
		Long: `gstr reads lines, words or domain names from files (or stdin), stores every
distinct value exactly once in an intern pool and reports the deduplication
ratio, retained bytes and the most repeated values.`,
		SilenceUsage: true,
		RunE:         runRoot,
	}
	cfg = config.BindFlags(cmd)
	cmd.PersistentFlags().BoolP("version", "V", false, "Show gstr version information and exit")
	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	showVersion, err := cmd.Flags().GetBool("version")
	if err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "gstr version: %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", date)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ApplyProfile(cfg, cmd); err != nil {
		return err
	}
	cfg.Inputs = append(cfg.Inputs, args...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	levelName := cfg.LogLevel
	if cfg.Verbose && !cmd.Flags().Changed("log-level") {
		levelName = "debug"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	console := cmd.ErrOrStderr()
	if cfg.Silent {
		console = io.Discard
	}
	logger, err := logging.New(logging.Options{Level: level, Console: console, FilePath: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logger.Close()

	if cfg.ConfigPath != "" {
		logger.Debugf("Loaded configuration from %s", cfg.ConfigPath)
	}

	return run(ctx, cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger, stdin io.Reader, stdout io.Writer) error {
	matcher, err := filters.NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}

	pool := intern.NewPool(cfg.PoolOptions())
	logger.Infof("Interning %s using %s split (policy=%s shards=%d)", describeInputs(cfg), cfg.Split, pool.Policy(), pool.Shards())

	tracker := stats.NewTracker(stats.Options{Logger: logger.Named("stats"), Interval: cfg.StatsInterval, Pool: pool})
	tracker.Start(ctx.Done())

	result, err := ingest.Run(ctx, gatherSources(cfg, stdin), ingest.Options{
		Pool:    pool,
		Split:   cfg.Split,
		Matcher: matcher,
		Tracker: tracker,
		Logger:  logger.Named("ingest"),
		Threads: cfg.Threads,
	})
	snapshot := tracker.Stop()
	if err != nil {
		return err
	}
	tracker.LogFinal()

	report := buildReport(cfg, result, snapshot)

	writer, err := output.NewWriter(cfg, stdout)
	if err != nil {
		result.Release()
		return err
	}
	writeErr := writer.WriteReport(report)
	closeErr := writer.Close()

	// Sample metrics before the references held by result are released.
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, pool, "gstr"); err != nil {
			logger.Warnf("Unable to write metrics: %v", err)
		} else {
			logger.Infof("Pool metrics written to %s", cfg.MetricsFile)
		}
	}
	result.Release()

	if writeErr != nil {
		return fmt.Errorf("writing report: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing report: %w", closeErr)
	}
	if !cfg.LiveOutput() {
		logger.Infof("Report written to %s (%s)", cfg.OutputPath, cfg.Format)
	}
	return nil
}

func gatherSources(cfg *config.Config, stdin io.Reader) []ingest.Source {
	if cfg.ReadStdin() {
		return []ingest.Source{ingest.ReaderSource("stdin", stdin)}
	}
	sources := make([]ingest.Source, 0, len(cfg.Inputs))
	for _, path := range cfg.Inputs {
		if path == "-" {
			sources = append(sources, ingest.ReaderSource("stdin", stdin))
			continue
		}
		sources = append(sources, ingest.FileSource(path))
	}
	return sources
}

func describeInputs(cfg *config.Config) string {
	if cfg.ReadStdin() {
		return "stdin"
	}
	if len(cfg.Inputs) == 1 {
		return cfg.Inputs[0]
	}
	return fmt.Sprintf("%d inputs", len(cfg.Inputs))
}

func buildReport(cfg *config.Config, result *ingest.Result, snapshot stats.Snapshot) output.Report {
	top := result.Top(cfg.Top)
	frequencies := make([]output.Frequency, 0, len(top))
	for _, f := range top {
		frequencies = append(frequencies, output.Frequency{Value: f.Value.Value(), Count: f.Count})
	}

	duration := snapshot.Duration
	if rounded := duration.Truncate(time.Millisecond); rounded > 0 {
		duration = rounded
	}

	return output.Report{
		Sources:       result.Sources,
		Tokens:        result.Tokens,
		Skipped:       result.Skipped,
		Unique:        result.Unique(),
		BytesIn:       result.BytesIn,
		BytesRetained: snapshot.Pool.Bytes,
		SavedBytes:    snapshot.SavedBytes(),
		DedupRatio:    snapshot.DedupRatio(),
		HitRate:       snapshot.Pool.HitRate(),
		Policy:        snapshot.Pool.Policy.String(),
		Shards:        snapshot.Pool.Shards,
		Evictions:     snapshot.Pool.Evictions,
		Duration:      duration.String(),
		Top:           frequencies,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !strings.HasSuffix(err.Error(), "help requested") {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
