package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/config"
	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
	"github.com/ironsheep/coloc-tools-mcp/internal/report"
)

const (
	colocalizationFile = "colocalization.csv"
	enrichmentFile     = "enrichment.csv"
	mediansPlotFile    = "medians.png"
	overlayDir         = "overlays"
	outputLockFile     = ".coloc.lock"
)

type analyzeOptions struct {
	outputDir string
	workers   int
	name      string
	overlays  bool
	noPlot    bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze every field of view in an image directory",
		Long: `Scan the image directory, match channel files into fields of view and
analyze each field: overlap of the reference and query masks, a size-filtered
object count, background rings around granules and the enrichment test of the
granules against the probe image. Writes CSV reports, a median plot and,
when paths.database is set, records the run in SQLite.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			dir, err := ctx.imageDir(args)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(runCtx, cmd, cfg, dir, opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Report directory (default paths.output_dir)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Fields analyzed concurrently (default analysis.workers)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Run name (default experiment.name)")
	cmd.Flags().BoolVar(&opts.overlays, "overlays", false, "Save an overlay of the enriched granules per field")
	cmd.Flags().BoolVar(&opts.noPlot, "no-plot", false, "Skip the median plot")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dir string, opts analyzeOptions, logger *slog.Logger) error {
	layout := cfg.Layout()
	if dir != cfg.Paths.ImageDir {
		if layout.MaskDir == "" || layout.MaskDir == cfg.Paths.ImageDir {
			layout.MaskDir = dir
		}
		layout.ImageDir = dir
	}

	outputDir, err := resolveOutputDir(cfg, dir, opts.outputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(outputDir, outputLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another analysis is writing to %s", outputDir)
	}
	defer func() { _ = lock.Unlock() }()

	_, matched, err := scanAndMatch(cfg, dir, logger)
	if err != nil {
		return err
	}
	groups := append(append([]channels.Group{}, matched.Complete...), matched.Partial...)
	fields, layoutErrs := layout.Fields(groups)
	for _, e := range layoutErrs {
		logger.Warn("field skipped", "error", e)
	}
	if len(fields) == 0 {
		return errors.New("no analyzable fields found")
	}

	workers := cfg.Analysis.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	runner := &pipeline.Runner{
		Params:  cfg.Params(),
		Workers: workers,
		Logger:  logger,
	}
	if opts.overlays {
		dest := filepath.Join(outputDir, overlayDir)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("create overlay directory: %w", err)
		}
		runner.OnResult = func(res *pipeline.FieldResult) {
			if err := saveFieldOverlay(dest, res); err != nil {
				logger.Warn("overlay failed", "field", res.Name, "error", err)
			}
		}
	}

	started := time.Now().UTC()
	logger.Info("analysis started", "dir", dir, "fields", len(fields), "workers", workers)
	batch, runErr := runner.Run(ctx, fields)
	if batch == nil {
		return runErr
	}

	if err := writeReports(outputDir, batch.Results, opts.noPlot, logger); err != nil {
		return err
	}
	var runID string
	if cfg.Paths.Database != "" {
		name := opts.name
		if name == "" {
			name = cfg.Experiment.Name
		}
		runID, err = recordRun(ctx, cfg.Paths.Database, name, started, cfg.Params(), batch.Results, logger)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.RenderSummary(batch.Results))
	if runID != "" {
		fmt.Fprintf(out, "Recorded run %s\n", runID)
	}
	for _, fe := range batch.Errors {
		fmt.Fprintf(out, "failed: %v\n", fe)
	}
	if batch.Skipped > 0 {
		fmt.Fprintf(out, "%d fields not started\n", batch.Skipped)
	}
	fmt.Fprintf(out, "Reports written to %s\n", outputDir)

	if runErr != nil {
		return runErr
	}
	if len(batch.Errors) > 0 {
		return fmt.Errorf("%d of %d fields failed", len(batch.Errors), len(fields))
	}
	return nil
}

func resolveOutputDir(cfg *config.Config, dir, flag string) (string, error) {
	if strings.TrimSpace(flag) != "" {
		return config.ExpandPath(flag)
	}
	if cfg.Paths.OutputDir != "" && dir == cfg.Paths.ImageDir {
		return cfg.Paths.OutputDir, nil
	}
	return filepath.Join(dir, "coloc-results"), nil
}

func writeReports(outputDir string, results []*pipeline.FieldResult, noPlot bool, logger *slog.Logger) error {
	if err := writeCSV(filepath.Join(outputDir, colocalizationFile), results, report.WriteColocalizationCSV); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(outputDir, enrichmentFile), results, report.WriteEnrichmentCSV); err != nil {
		return err
	}
	if noPlot {
		return nil
	}
	err := report.PlotMedians(results, filepath.Join(outputDir, mediansPlotFile))
	if errors.Is(err, report.ErrNoPoints) {
		logger.Info("no enriched objects to plot")
		return nil
	}
	return err
}

func writeCSV(path string, results []*pipeline.FieldResult, write func(w io.Writer, results []*pipeline.FieldResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f, results); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func recordRun(ctx context.Context, path, name string, started time.Time, params pipeline.Params, results []*pipeline.FieldResult, logger *slog.Logger) (string, error) {
	store, err := report.OpenStore(path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	// A cancelled batch still records the fields that finished.
	ctx = context.WithoutCancel(ctx)
	run, err := store.RecordRun(ctx, report.Run{Name: name, StartedAt: started, Params: params})
	if err != nil {
		return "", err
	}
	for _, res := range results {
		if _, err := store.RecordField(ctx, run.ID, res); err != nil {
			return "", err
		}
	}
	logger.Info("run recorded", "run", run.ID, "fields", len(results), "database", store.Path())
	return run.ID, nil
}

// saveFieldOverlay draws the field's enriched granules filled and their
// background rings outlined over the probe image.
func saveFieldOverlay(dir string, res *pipeline.FieldResult) error {
	if res.Probe == nil || res.EnrichedMask == nil || res.RingMask == nil {
		return nil
	}
	img, err := imaging.RenderOverlay(res.Probe, []imaging.OverlayLayer{
		{Mask: res.RingMask, Color: "#FF00FF", Opacity: 0.25},
		{Mask: res.EnrichedMask, Opacity: 0.5, Outline: true},
	}, imaging.OverlayOptions{})
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(res.Name, filepath.Ext(res.Name)) + ".png"
	return imaging.SaveOverlay(filepath.Join(dir, name), img)
}
