// Package invoicing runs the generate pipeline: render an invoice against
// business data, convert it to PDF and, when asked, record it.
package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/pdf"
	"github.com/MrJamesThe3rd/invoiceflow/internal/render"
)

type Service struct {
	billing   *billing.Service
	converter pdf.Converter
	log       zerolog.Logger
}

func NewService(billingSvc *billing.Service, converter pdf.Converter, log zerolog.Logger) *Service {
	return &Service{billing: billingSvc, converter: converter, log: log}
}

// Result is a converted invoice.
type Result struct {
	Invoice  billing.Invoice
	Document *render.Document
	FileName string
	PDF      []byte
}

// Totals computes totals for items with the owner's retention rate.
func (s *Service) Totals(ctx context.Context, owner billing.Owner, items []billing.LineItem) (billing.Totals, error) {
	data, err := s.billing.Load(ctx, owner)
	if err != nil {
		return billing.Totals{}, err
	}

	return billing.Calculate(items, data.Issuer.RetentionRate()), nil
}

// Preview renders inv against snapshot, or against the stored document when
// snapshot is nil.
func (s *Service) Preview(ctx context.Context, owner billing.Owner, inv *billing.Invoice, snapshot *billing.BusinessData) (*render.Document, error) {
	data := snapshot
	if data == nil {
		var err error

		if data, err = s.billing.Load(ctx, owner); err != nil {
			return nil, err
		}
	}

	return render.Render(inv, data)
}

// Snapshot converts inv using only the supplied business data. The store is
// not read or written.
func (s *Service) Snapshot(ctx context.Context, inv *billing.Invoice, data *billing.BusinessData) (*Result, error) {
	doc, err := render.Render(inv, data)
	if err != nil {
		return nil, err
	}

	out, err := s.converter.Convert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", doc.FileName, err)
	}

	return &Result{Invoice: *inv, Document: doc, FileName: doc.FileName, PDF: out}, nil
}

// Generate converts inv against the owner's stored document. With record
// set, the invoice is upserted by id and the issuer counter advanced, but
// only once conversion has succeeded.
func (s *Service) Generate(ctx context.Context, owner billing.Owner, inv billing.Invoice, record bool) (*Result, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	data, err := s.billing.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	res, err := s.Snapshot(ctx, &inv, data)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", owner.ID).Str("number", inv.Number).Msg("invoice generation failed")
		return nil, err
	}

	if !record {
		return res, nil
	}

	_, err = s.billing.Mutate(ctx, owner, func(d *billing.BusinessData) error {
		d.UpsertInvoice(inv)
		d.AdvanceInvoiceNumber(inv.Number)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recording invoice %s: %w", inv.Number, err)
	}

	s.log.Info().Str("user_id", owner.ID).Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("invoice recorded")

	return res, nil
}
