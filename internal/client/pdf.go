package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

// PDF is a generated invoice document.
type PDF struct {
	FileName  string
	InvoiceID string
	Content   []byte
}

// Generate renders inv against the caller's stored data. With record set
// the server also saves the invoice and advances the counter.
func (c *Client) Generate(ctx context.Context, token string, inv billing.Invoice, record bool) (*PDF, error) {
	body := map[string]any{"invoice": inv, "record": record}

	return c.fetchPDF(ctx, "/api/v1/invoices/generate", token, body, inv.Number)
}

// GenerateSnapshot renders inv against data without touching the stored
// document.
func (c *Client) GenerateSnapshot(ctx context.Context, token string, inv billing.Invoice, data *billing.BusinessData) (*PDF, error) {
	body := map[string]any{"invoice": inv, "globalData": data}

	return c.fetchPDF(ctx, "/api/v1/generate-pdf", token, body, inv.Number)
}

func (c *Client) fetchPDF(ctx context.Context, path, token string, body any, number string) (*PDF, error) {
	resp, err := c.send(ctx, http.MethodPost, path, token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	return &PDF{
		FileName:  fileName(resp, number),
		InvoiceID: resp.Header.Get("X-Invoice-Id"),
		Content:   content,
	}, nil
}

// Save writes the PDF into dir and returns its path.
func (p *PDF) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, p.FileName)
	if err := os.WriteFile(path, p.Content, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func fileName(resp *http.Response, number string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return strings.ReplaceAll(filepath.Base(name), " ", "_")
			}
		}
	}

	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '-'
	}, number)

	return "Factura_" + safe + ".pdf"
}
