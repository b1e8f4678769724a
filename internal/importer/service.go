package importer

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

type Service struct {
	billing *billing.Service
	log     zerolog.Logger
}

func NewService(billingSvc *billing.Service, log zerolog.Logger) *Service {
	return &Service{billing: billingSvc, log: log}
}

// ImportRecipients parses r and appends the new recipients to the owner's
// document in a single read-modify-write.
func (s *Service) ImportRecipients(ctx context.Context, owner billing.Owner, r io.Reader) (*Result, error) {
	parsed, err := ParseRecipients(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Imported: []billing.Recipient{}}

	_, err = s.billing.Mutate(ctx, owner, func(d *billing.BusinessData) error {
		known := make(map[string]bool, len(d.Recipients))
		for _, rec := range d.Recipients {
			if key := taxKey(rec.TaxID); key != "" {
				known[key] = true
			}
		}

		for _, rec := range parsed {
			key := taxKey(rec.TaxID)
			if key != "" && known[key] {
				res.Skipped++
				continue
			}

			if key != "" {
				known[key] = true
			}

			res.Imported = append(res.Imported, d.AddRecipient(rec))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", owner.ID).
		Int("imported", len(res.Imported)).
		Int("skipped", res.Skipped).
		Msg("imported recipients")

	return res, nil
}

func taxKey(id string) string {
	return strings.ToUpper(strings.Join(strings.Fields(id), ""))
}
