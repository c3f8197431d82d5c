package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"edfanon/internal/config"
	"edfanon/internal/logger"
	"edfanon/internal/manifest"
	"edfanon/internal/names"
	"edfanon/internal/redact"
	"edfanon/internal/session"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var (
		inputDir      string
		outputDir     string
		subjectCode   string
		firstName     string
		middleNames   string
		lastName      string
		epoch         string
		partialPolicy string
		patterns      []string
		noAnnotations bool
		workers       int
		dryRun        bool
		noManifest    bool
		logLevel      string
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "De-identify all EDF files of one subject session",
		Example: `  edfanon run --input /exports/R1001E --output /clean/R1001E \
      --subject-code R1001E --first-name John --middle-name Paul --last-name Smith`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			// Flags override file and environment configuration
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Session.InputDir = inputDir
			}
			if flags.Changed("output") {
				cfg.Session.OutputDir = outputDir
			}
			if flags.Changed("subject-code") {
				cfg.Subject.Code = subjectCode
			}
			if flags.Changed("first-name") {
				cfg.Subject.FirstName = firstName
			}
			if flags.Changed("middle-name") {
				cfg.Subject.MiddleNames = middleNames
			}
			if flags.Changed("last-name") {
				cfg.Subject.LastName = lastName
			}
			if flags.Changed("epoch") {
				cfg.Session.Epoch = epoch
			}
			if flags.Changed("partial-record") {
				cfg.Session.PartialRecordPolicy = partialPolicy
			}
			if flags.Changed("pattern") {
				cfg.Redaction.Patterns = append(cfg.Redaction.Patterns, patterns...)
			}
			if flags.Changed("no-annotation-redaction") {
				cfg.Redaction.Annotations = !noAnnotations
			}
			if flags.Changed("workers") {
				cfg.Session.Workers = workers
			}
			if flags.Changed("dry-run") {
				cfg.Session.DryRun = dryRun
			}
			if flags.Changed("no-manifest") {
				cfg.Session.Manifest = !noManifest
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if flags.Changed("log-format") {
				cfg.Logging.Format = logFormat
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSession(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&inputDir, "input", "", "Directory holding the source EDF files")
	cmd.Flags().StringVar(&outputDir, "output", "", "Directory for de-identified output")
	cmd.Flags().StringVar(&subjectCode, "subject-code", "", "De-identified subject code (e.g. R1001E)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Subject first name")
	cmd.Flags().StringVar(&middleNames, "middle-name", "", `Subject middle name(s), underscore-delimited; "" for none`)
	cmd.Flags().StringVar(&lastName, "last-name", "", "Subject last name")
	cmd.Flags().StringVar(&epoch, "epoch", config.DefaultEpoch, "De-identified base date")
	cmd.Flags().StringVar(&partialPolicy, "partial-record", "zero-pad", "Partial final record policy: drop or zero-pad")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Additional redaction regex (repeatable)")
	cmd.Flags().BoolVar(&noAnnotations, "no-annotation-redaction", false, "Skip annotation redaction (header scrubbing always runs)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent file workers")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan and report without writing output")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "Skip writing the run manifest database")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	return cmd
}

func runSession(cmd *cobra.Command, cfg *config.Config) error {
	logCfg := logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Logging.File.Enabled {
		logCfg.File = &logger.FileConfig{Enabled: true, Path: cfg.Logging.File.Path}
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Session.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// One run at a time per output tree
	lock := flock.New(filepath.Join(cfg.Session.OutputDir, ".edfanon.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("output directory %s is locked by another run", cfg.Session.OutputDir)
	}
	defer lock.Unlock()

	var store *manifest.Store
	if cfg.Session.Manifest && !cfg.Session.DryRun {
		store, err = manifest.Open(cfg.Session.OutputDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	spec := names.Spec{
		First:  cfg.Subject.FirstName,
		Middle: names.ParseMiddleNames(cfg.Subject.MiddleNames),
		Last:   cfg.Subject.LastName,
	}
	engine, err := redact.NewEngine(cfg.Redaction, spec, log)
	if err != nil {
		return err
	}

	orch, err := session.New(cfg, engine, log, store)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	if store != nil {
		log.Info("Manifest written", zap.String("path", store.Path()))
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, summary.Failed, len(summary.Results))
	}
	return nil
}

func renderSummary(summary *session.Summary) string {
	headers := []string{"File", "Status", "New start", "Blanked", "Dropped", "Detail"}
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		newStart := ""
		if !r.NewStart.IsZero() {
			newStart = r.NewStart.Format(time.DateTime)
		}
		detail := r.Reason
		if detail == "" && r.PartialRecord {
			detail = "partial final record: " + string(r.PolicyApplied)
		}
		rows = append(rows, []string{
			filepath.Base(r.Input),
			string(r.Status),
			newStart,
			fmt.Sprintf("%d", r.Blanked()),
			fmt.Sprintf("%d", r.Dropped()),
			detail,
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}

	return fmt.Sprintf("%s\nrun %s: %d succeeded, %d failed, %d skipped in %s",
		renderTable(headers, rows, aligns),
		summary.RunID, summary.Succeeded, summary.Failed, summary.Skipped,
		summary.Duration.Round(time.Millisecond))
}
