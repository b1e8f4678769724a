// Package importer loads recipients from spreadsheet exports into a user's
// business data.
package importer

import "github.com/MrJamesThe3rd/invoiceflow/internal/billing"

// Result reports what an import added. Rows whose tax id already exists
// among the user's recipients are skipped.
type Result struct {
	Imported []billing.Recipient `json:"imported"`
	Skipped  int                 `json:"skipped"`
}
