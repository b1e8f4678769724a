package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/invoiceflow/cmd/iflow/internal/view"
	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

func newGenCmd(e *env) *cobra.Command {
	var opts GenOptions

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a new invoice",
		Example: `  iflow gen --price 450 --concept "Consultoría abril"
  iflow gen --template Monthly --num 2024-031 --out ~/Facturas`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireSession(); err != nil {
				return err
			}

			data, err := e.api.Data(cmd.Context(), e.token)
			if err != nil {
				return e.sessionError(err)
			}

			inv, err := BuildInvoice(data, opts, time.Now())
			if err != nil {
				return err
			}

			return e.generate(cmd.Context(), cmd.OutOrStdout(), data, inv)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Price, "price", "p", "", "unit price of the single item")
	f.StringVarP(&opts.Concept, "concept", "c", "", "concept of the single item")
	f.StringVarP(&opts.Number, "num", "n", "", "invoice number (default: next number)")
	f.StringVarP(&opts.Recipient, "rec", "r", "", "recipient id (default: first recipient)")
	f.StringVarP(&opts.Account, "acc", "a", "", "account id (default: first account)")
	f.StringVarP(&opts.Template, "template", "t", "", "template id or name")

	return cmd
}

func newEditCmd(e *env) *cobra.Command {
	var opts EditOptions

	cmd := &cobra.Command{
		Use:   "edit <invoice-id|number>",
		Short: "Edit an existing invoice and regenerate its PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireSession(); err != nil {
				return err
			}

			data, err := e.api.Data(cmd.Context(), e.token)
			if err != nil {
				return e.sessionError(err)
			}

			inv, err := ApplyEdit(data, args[0], opts)
			if err != nil {
				return err
			}

			return e.generate(cmd.Context(), cmd.OutOrStdout(), data, inv)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Price, "price", "p", "", "new price of the first item")
	f.StringVarP(&opts.Concept, "concept", "c", "", "new concept of the first item")
	f.StringVar(&opts.Date, "date", "", "new invoice date (YYYY-MM-DD)")

	return cmd
}

func newSummaryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "View billing status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireSession(); err != nil {
				return err
			}

			data, err := e.api.Data(cmd.Context(), e.token)
			if err != nil {
				return e.sessionError(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), view.RenderSummary(data.Summary()))

			return nil
		},
	}
}

// generate asks the server to convert and record inv, then saves the PDF.
func (e *env) generate(ctx context.Context, out io.Writer, data *billing.BusinessData, inv billing.Invoice) error {
	rec, _ := data.FindRecipient(inv.RecipientID)
	totals := billing.Calculate(inv.Items, data.Issuer.RetentionRate())

	fmt.Fprintln(out, view.FaintStyle.Render(fmt.Sprintf("%s | %s | %s", rec.Name, inv.Number, view.FormatMoney(totals.Total))))
	fmt.Fprintln(out, "Processing PDF...")

	doc, err := e.api.Generate(ctx, e.token, inv, true)
	if err != nil {
		return e.sessionError(err)
	}

	path, err := doc.Save(e.outDir)
	if err != nil {
		return err
	}

	e.log.Debug().Str("invoice_id", doc.InvoiceID).Str("path", path).Msg("invoice saved")

	fmt.Fprintln(out, view.SuccessStyle.Render("PDF Generated: "+doc.FileName))
	fmt.Fprintln(out, view.FaintStyle.Render("Location: "+path))

	return nil
}
