package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/backendapi"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/events"
	"github.com/AbrarAhmad001/antigravity-budget/internal/session"
	"github.com/AbrarAhmad001/antigravity-budget/pkg/logger"
)

var (
	captureImagePath string
	captureConfirm   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture [text...]",
	Short: "Extract transactions from text or a receipt image",
	Long: `Run one extraction round against the backend and print the
normalized draft transactions. With --confirm the batch is validated and
saved in the same run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture(cmd.Context(), strings.Join(args, " "))
	},
}

func runCapture(ctx context.Context, text string) error {
	config, err := loadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitFromConfig(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	backend := backendapi.NewClient(backendapi.Config{
		BaseURL:        config.Backend.BaseURL,
		RequestTimeout: config.Backend.RequestTimeout,
		UploadTimeout:  config.Backend.UploadTimeout,
	}, lg)

	sess := session.NewSession(backend, events.NewEventBus(lg), lg)

	var captureErr error
	switch {
	case captureImagePath != "":
		file, err := os.Open(captureImagePath)
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer file.Close()

		_, captureErr = sess.CaptureImage(ctx, filepath.Base(captureImagePath), file)
	case text != "":
		_, captureErr = sess.CaptureText(ctx, text)
	default:
		return fmt.Errorf("provide text to capture or --image")
	}

	if captureErr != nil {
		// Nothing extracted is a normal outcome, not a failure.
		if appErr, ok := internal.IsAppError(captureErr); ok && appErr.Code == internal.ErrCodeNothingExtracted {
			fmt.Fprintln(os.Stderr, "nothing extracted")
			return nil
		}
		return captureErr
	}

	drafts := sess.Drafts()
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(drafts); err != nil {
		return fmt.Errorf("failed to print drafts: %w", err)
	}

	if !captureConfirm {
		fmt.Fprintf(os.Stderr, "%d draft(s) extracted; re-run with --confirm to save\n", len(drafts))
		return nil
	}

	if err := sess.ConfirmBatch(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %d transaction(s)\n", len(drafts))
	return nil
}
