package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/render"
)

type ChromeConfig struct {
	// Binary is a Chrome, Chromium or Edge executable supporting --print-to-pdf.
	Binary  string
	Timeout time.Duration
	// TempDir is the parent for per-conversion work directories; empty means os.TempDir.
	TempDir string
}

// Chrome prints the document's HTML through a headless browser. Each call
// works in its own temporary directory which is removed before returning.
type Chrome struct {
	cfg ChromeConfig
	log zerolog.Logger
}

func NewChrome(cfg ChromeConfig, log zerolog.Logger) *Chrome {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Chrome{cfg: cfg, log: log}
}

func (c *Chrome) Convert(ctx context.Context, doc *render.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", billing.ErrInvalidInput)
	}

	dir, err := os.MkdirTemp(c.cfg.TempDir, "invoice-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating work directory: %v", ErrConversionFailed, err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "invoice.html")
	if err := os.WriteFile(src, doc.HTML, 0o600); err != nil {
		return nil, fmt.Errorf("%w: writing html: %v", ErrConversionFailed, err)
	}

	out := filepath.Join(dir, "invoice.pdf")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Binary,
		"--headless",
		"--disable-gpu",
		"--no-pdf-header-footer",
		"--print-to-pdf="+out,
		"file://"+filepath.ToSlash(src),
	)
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrConversionFailed, c.cfg.Timeout)
		}

		return nil, fmt.Errorf("%w: %v: %s", ErrConversionFailed, err, bytes.TrimSpace(stderr.Bytes()))
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrConversionFailed, err)
	}

	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrConversionFailed)
	}

	c.log.Debug().
		Str("file", doc.FileName).
		Dur("took", time.Since(start)).
		Int("bytes", len(pdf)).
		Msg("printed invoice")

	return pdf, nil
}
