package catalogsync

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func renderProducts(w io.Writer, items []catalog.RemoteProduct) error {
	tw := newTable(w, "ID", "INTERNAL ID", "OWNER", "ACTIVE", "NAME")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Tag.InternalID, orDash(p.Tag.Owner), p.Active, p.Name)
	}
	return tw.Flush()
}

func renderPrices(w io.Writer, items []catalog.RemotePrice) error {
	tw := newTable(w, "ID", "INTERNAL ID", "PRODUCT", "ACTIVE", "AMOUNT", "BILLING")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
			p.ID, p.Tag.InternalID, orDash(p.InternalProductID), p.Active,
			formatAmount(p.UnitAmount, p.Currency), formatRecurring(p.Recurring))
	}
	return tw.Flush()
}

func renderDiff(w io.Writer, d *catalog.Diff) error {
	tw := newTable(w, "PLAN", "OBJECT", "REMOTE ID", "STATUS", "DETAILS")
	for _, pd := range d.Plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", pd.PlanID, pd.ProductID, orDash(pd.RemoteID), pd.Status, strings.Join(pd.Details, "; "))
		for _, pr := range pd.Prices {
			fmt.Fprintf(tw, "\t  %s\t%s\t%s\t%s\n", pr.PriceID, orDash(pr.RemoteID), pr.Status, strings.Join(pr.Details, "; "))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d plans: %d synced, %d missing, %d differ\n",
		d.Summary.Total, d.Summary.Synced, d.Summary.Missing, d.Summary.Differs)
	return err
}

func formatAmount(v *int64, currency string) string {
	if v == nil {
		return "variable " + strings.ToUpper(currency)
	}
	return strconv.FormatInt(*v, 10) + " " + strings.ToUpper(currency)
}

func formatRecurring(r *catalog.Recurring) string {
	if r == nil {
		return "one-time"
	}
	s := string(r.Interval)
	if r.IntervalCount > 1 {
		s = fmt.Sprintf("every %d %ss", r.IntervalCount, r.Interval)
	}
	if r.UsageType == catalog.UsageMetered {
		s += " (metered)"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
