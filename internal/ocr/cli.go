package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
)

// CLIEngine shells out to the tesseract binary, feeding the image on stdin
// and reading the text from stdout. It needs no cgo.
type CLIEngine struct {
	binary string
}

// NewCLIEngine resolves binary on PATH
func NewCLIEngine(binary string) (*CLIEngine, error) {
	if binary == "" {
		binary = "tesseract"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeEngineUnavailable,
			fmt.Sprintf("tesseract binary %q not found", binary), err)
	}
	return &CLIEngine{binary: resolved}, nil
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Recognize runs: tesseract stdin stdout [-l langs] [--psm N] [--dpi D]
func (e *CLIEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	args := []string{"stdin", "stdout"}
	if len(in.Languages) > 0 {
		args = append(args, "-l", strings.Join(in.Languages, "+"))
	}
	if in.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(in.PSM))
	}
	if in.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(in.DPI))
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = bytes.NewReader(in.Image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return Result{
		InputID:   in.ID,
		PlainText: strings.TrimSpace(stdout.String()),
		PSM:       in.PSM,
	}, nil
}
