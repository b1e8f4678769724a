// Package pdf converts rendered invoices into PDF bytes.
package pdf

import (
	"context"
	"errors"

	"github.com/MrJamesThe3rd/invoiceflow/internal/render"
)

// ErrConversionFailed wraps every failure of the conversion step. Callers
// may retry; converters never do.
var ErrConversionFailed = errors.New("pdf conversion failed")

//go:generate mockgen -source=pdf.go -destination=converter_mock.go -package=pdf
type Converter interface {
	Convert(ctx context.Context, doc *render.Document) ([]byte, error)
}
