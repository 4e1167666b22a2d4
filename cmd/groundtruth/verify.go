package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clinops/groundtruth/internal/core"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the published pointer and artifact without changing anything",
	Long: `Verify fetches the LATEST pointer from the bucket, resolves the artifact
it points at, and confirms the artifact exists. When local artifacts are
present their digests are compared against the remote pointer.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	bucket := app.cfg.S3.Bucket
	pointerKey := core.PointerKey(app.cfg.S3.Prefix)

	app.printer.Header("Ground Truth Verify")
	app.printer.Infof("Pointer: %s", core.S3URI(bucket, pointerKey))

	data, err := app.store.Get(ctx, bucket, pointerKey)
	if err != nil {
		return fmt.Errorf("reading pointer back: %w", err)
	}

	key, pointer, err := core.ParsePointer(data)
	if err != nil {
		return fmt.Errorf("remote pointer does not parse: %w", err)
	}

	size, err := app.store.Head(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("verifying flat artifact: %w", err)
	}

	if pointer != nil {
		app.printer.Infof("Version:    %s", pointer.Version)
		app.printer.Infof("Updated at: %s", pointer.UpdatedAt)
		if pointer.SHA256 != nil {
			app.printer.Infof("SHA-256:    %s", *pointer.SHA256)
		}
	} else {
		app.printer.Warnf("Pointer is in the legacy bare-key format")
	}
	app.printer.Successf("Artifact exists: %s (%d bytes)", core.S3URI(bucket, key), size)

	return compareLocal(app, key, pointer)
}

// compareLocal diffs the remote pointer against whatever artifacts exist
// locally. A digest mismatch is an error; absent local state is not.
func compareLocal(app *app, remoteKey string, remote *core.Pointer) error {
	localPointerPath := filepath.Join(app.cfg.Pipeline.OutputDir, core.PointerFileName)
	data, err := os.ReadFile(localPointerPath)
	if err != nil {
		app.printer.Infof("No local pointer at %s to compare against.", localPointerPath)
		return nil
	}

	localKey, _, err := core.ParsePointer(data)
	if err != nil {
		app.printer.Warnf("Local pointer does not parse: %v", err)
		return nil
	}
	if localKey != remoteKey {
		app.printer.Warnf("Local pointer resolves to %s, remote to %s", localKey, remoteKey)
	} else {
		app.printer.Successf("Local pointer matches the remote key")
	}

	if remote == nil || remote.SHA256 == nil {
		return nil
	}
	localArtifact := filepath.Join(app.cfg.Pipeline.OutputDir, "versions", remote.Version, core.FlatArtifactName)
	digest, err := core.FileSHA256(localArtifact)
	if err != nil {
		app.printer.Infof("No local artifact for version %s.", remote.Version)
		return nil
	}
	if digest != *remote.SHA256 {
		return fmt.Errorf("local artifact digest %s does not match remote pointer %s", digest, *remote.SHA256)
	}
	app.printer.Successf("Local artifact digest matches the remote pointer")
	return nil
}
