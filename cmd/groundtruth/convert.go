package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the hierarchical export into the flat artifact",
	Long: `Convert reads the hierarchical export, reconstructs the document records,
and writes the versioned flat artifact plus its debug companion locally.
Nothing is written unless round-trip validation passes.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	app.printer.Header("Ground Truth Conversion")
	app.printer.Infof("Input:   %s", app.cfg.Pipeline.InputPath)
	app.printer.Infof("Output:  %s", app.cfg.Pipeline.OutputDir)

	res, err := app.service.Convert(cmd.Context())
	if res != nil {
		app.printer.ConvertSummary(res)
		if res.Report.Documents > 0 || len(res.Report.Issues) > 0 {
			app.printer.ValidationIssues(res.Report)
		}
	}
	if err != nil {
		return err
	}
	if res.Blocked {
		return fmt.Errorf("conversion blocked by round-trip validation: %d issue(s)", len(res.Report.Issues))
	}
	return nil
}
