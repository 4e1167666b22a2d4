package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinops/groundtruth/internal/config"
	"github.com/clinops/groundtruth/internal/core"
	"github.com/clinops/groundtruth/internal/deploy"
	"github.com/clinops/groundtruth/internal/logging"
	"github.com/clinops/groundtruth/internal/objectstore"
	"github.com/clinops/groundtruth/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "groundtruth",
	Short: "Clinical ground-truth conversion and publish pipeline",
	Long: `groundtruth converts the hierarchical clinical-document export into the
flat ground-truth artifact consumed by the evaluation services.

Every conversion is round-trip validated before anything is written: the
freshly encoded artifact is decoded again and compared field by field
against the parsed records. A single discrepancy blocks the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("input", "", "path to the hierarchical export CSV (overrides INPUT_PATH)")
	rootCmd.PersistentFlags().String("output-dir", "", "directory for versioned artifacts (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().String("version-tag", "", "artifact version tag (overrides VERSION_TAG; default: today)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
}

// app bundles everything a command needs at run time.
type app struct {
	cfg     *config.Config
	printer *report.Printer
	service *core.Service
	store   core.ObjectStore
	history *core.HistoryStore
}

// newApp loads configuration, applies persistent flag overrides, and wires
// the pipeline service. withStore controls whether the S3 client and the
// deployment controller are built; local-only commands skip both.
func newApp(cmd *cobra.Command, withStore bool) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	input, err := cmd.Flags().GetString("input")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get input flag: %w", err)
	}
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get output-dir flag: %w", err)
	}
	versionTag, err := cmd.Flags().GetString("version-tag")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get version-tag flag: %w", err)
	}
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get no-color flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	if input != "" {
		cfg.Pipeline.InputPath = input
	}
	if outputDir != "" {
		cfg.Pipeline.OutputDir = outputDir
	}
	if versionTag != "" {
		cfg.Pipeline.VersionTag = versionTag
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	printer := report.NewPrinter(cmd.OutOrStdout(), noColor, quiet)

	history, err := core.OpenHistory(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("history db: %w", err)
	}
	cleanup := func() { history.Close() }

	var store core.ObjectStore
	var controller core.DeploymentController
	if withStore {
		s3store, err := objectstore.New(cmd.Context(), cfg.S3.Region)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store = s3store
		controller = deploy.NewController(cfg.Deploy.KubectlBin)
	}

	service, err := core.NewService(cfg, store, controller, history)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &app{
		cfg:     cfg,
		printer: printer,
		service: service,
		store:   store,
		history: history,
	}, cleanup, nil
}
