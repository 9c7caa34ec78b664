package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// ExportHeader is the column header row of the sales export.
var ExportHeader = []string{
	"purchase date",
	"performance name",
	"performance date",
	"buyer name",
	"buyer email",
	"verification code",
	"created by",
}

const (
	exportPurchaseDate    = "2006-01-02 15:04:05"
	exportPerformanceDate = "2006-01-02 15:04"
)

// Exporter writes the sales export used by support staff.
type Exporter struct {
	st store.Store
}

// NewExporter returns an Exporter over st.
func NewExporter(st store.Store) *Exporter {
	return &Exporter{st: st}
}

// WriteCSV writes one section per association, sorted by lower-cased
// name.  A section starts with a row holding the association name and
// lists one row per ticket sold for its performances, oldest purchase
// first.  Associations without sales still get their section row.
func (e *Exporter) WriteCSV(ctx context.Context, actor Actor, w io.Writer) error {
	if !actor.Caps.CanExport {
		return ErrForbidden
	}
	associations, err := e.st.ListAssociations(ctx)
	if err != nil {
		return err
	}
	performances, err := e.st.ListPerformances(ctx)
	if err != nil {
		return err
	}
	purchases, err := e.st.ListPurchases(ctx)
	if err != nil {
		return err
	}
	users, err := e.st.ListUsers(ctx)
	if err != nil {
		return err
	}

	perfByKey := make(map[string]model.Performance, len(performances))
	for _, p := range performances {
		perfByKey[p.Key] = p
	}
	usernames := make(map[uint64]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	type ticket struct {
		purchase    model.Purchase
		performance model.Performance
	}
	byAssociation := make(map[string][]ticket)
	for _, pu := range purchases {
		for _, key := range pu.Tickets() {
			perf, ok := perfByKey[key]
			if !ok {
				continue
			}
			byAssociation[perf.Association] = append(byAssociation[perf.Association], ticket{pu, perf})
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, a := range associations {
		if err := cw.Write([]string{a.Name}); err != nil {
			return err
		}
		tickets := byAssociation[a.Name]
		sort.SliceStable(tickets, func(i, j int) bool {
			if !tickets[i].purchase.Date.Equal(tickets[j].purchase.Date) {
				return tickets[i].purchase.Date.Before(tickets[j].purchase.Date)
			}
			return tickets[i].purchase.ID < tickets[j].purchase.ID
		})
		for _, t := range tickets {
			row := []string{
				t.purchase.Date.UTC().Format(exportPurchaseDate),
				csvCell(t.performance.Name),
				t.performance.Date.UTC().Format(exportPerformanceDate),
				csvCell(t.purchase.Name),
				csvCell(t.purchase.Email),
				t.purchase.VerificationCode,
				usernames[t.purchase.CreatedBy],
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// csvCell quotes values a spreadsheet would otherwise evaluate as a formula.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
