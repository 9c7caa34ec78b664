package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// ErrInvalidCatalogEntry is returned for associations or performances with
// missing required attributes.
var ErrInvalidCatalogEntry = errors.New("invalid catalog entry")

// PerformanceAvailability is a performance with its current ticket counts.
type PerformanceAvailability struct {
	model.Performance
	TicketsSold int
	TicketsLeft int
}

// AssociationGroup lists the performances of one association by date.
type AssociationGroup struct {
	Association  model.Association
	Performances []PerformanceAvailability
}

// UniqueNames returns the distinct performance names of the group, sorted.
func (g AssociationGroup) UniqueNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, p := range g.Performances {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// SelectableOption is one entry of the order form drop-downs.
type SelectableOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// CatalogService exposes associations and performances.
type CatalogService struct {
	st store.Store
}

// NewCatalogService returns a CatalogService over st.
func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{st: st}
}

// Catalog groups every performance under its association.  Associations
// are sorted by lower-cased name and performances by date.
func (c *CatalogService) Catalog(ctx context.Context) ([]AssociationGroup, error) {
	associations, err := c.st.ListAssociations(ctx)
	if err != nil {
		return nil, err
	}
	performances, err := c.availability(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(associations))
	groups := make([]AssociationGroup, len(associations))
	for i, a := range associations {
		index[a.Name] = i
		groups[i].Association = a
	}
	for _, p := range performances {
		if i, ok := index[p.Association]; ok {
			groups[i].Performances = append(groups[i].Performances, p)
		}
	}
	for _, g := range groups {
		sort.SliceStable(g.Performances, func(i, j int) bool {
			return g.Performances[i].Date.Before(g.Performances[j].Date)
		})
	}
	return groups, nil
}

// Selectable lists the performances with tickets left, labelled for the
// order form.
func (c *CatalogService) Selectable(ctx context.Context) ([]SelectableOption, error) {
	performances, err := c.availability(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SelectableOption, 0, len(performances))
	for _, p := range performances {
		if p.TicketsLeft > 0 {
			out = append(out, SelectableOption{Key: p.Key, Label: p.Selection()})
		}
	}
	return out, nil
}

// DataReady reports whether every association has an image.  The order
// page refuses to render until it does.
func (c *CatalogService) DataReady(ctx context.Context) (bool, error) {
	associations, err := c.st.ListAssociations(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range associations {
		if !a.HasImage() {
			return false, nil
		}
	}
	return true, nil
}

func (c *CatalogService) availability(ctx context.Context) ([]PerformanceAvailability, error) {
	performances, err := c.st.ListPerformances(ctx)
	if err != nil {
		return nil, err
	}
	ledger := NewLedger(c.st)
	out := make([]PerformanceAvailability, 0, len(performances))
	for _, p := range performances {
		sold, err := ledger.TicketsSold(ctx, p.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, PerformanceAvailability{Performance: p, TicketsSold: sold, TicketsLeft: p.MaxTickets - sold})
	}
	return out, nil
}

// CreateAssociation inserts a unless it exists.  It reports whether a row
// was created.
func (c *CatalogService) CreateAssociation(ctx context.Context, actor Actor, a model.Association) (bool, error) {
	if !actor.Caps.CanEdit {
		return false, ErrForbidden
	}
	return c.createAssociation(ctx, a)
}

func (c *CatalogService) createAssociation(ctx context.Context, a model.Association) (bool, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return false, fmt.Errorf("%w: association name is required", ErrInvalidCatalogEntry)
	}
	return c.st.CreateAssociation(ctx, a)
}

// CreatePerformance inserts p unless its key exists.  The association must
// exist.
func (c *CatalogService) CreatePerformance(ctx context.Context, actor Actor, p model.Performance) (bool, error) {
	if !actor.Caps.CanEdit {
		return false, ErrForbidden
	}
	return c.createPerformance(ctx, p)
}

func (c *CatalogService) createPerformance(ctx context.Context, p model.Performance) (bool, error) {
	p.Key = strings.TrimSpace(p.Key)
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Key == "":
		return false, fmt.Errorf("%w: performance key is required", ErrInvalidCatalogEntry)
	case p.Name == "":
		return false, fmt.Errorf("%w: performance name is required", ErrInvalidCatalogEntry)
	case p.Association == "":
		return false, fmt.Errorf("%w: association is required", ErrInvalidCatalogEntry)
	case p.MaxTickets < 0:
		return false, fmt.Errorf("%w: max tickets must not be negative", ErrInvalidCatalogEntry)
	}
	return c.st.CreatePerformance(ctx, p)
}

// DeletePerformance removes a performance nobody bought tickets for.
func (c *CatalogService) DeletePerformance(ctx context.Context, actor Actor, key string) error {
	if !actor.Caps.CanEdit {
		return ErrForbidden
	}
	return c.st.DeletePerformance(ctx, key)
}

func devImage(path string) *string { return &path }

// SeedDev loads the sample festival used in development.  It is idempotent.
func (c *CatalogService) SeedDev(ctx context.Context) error {
	associations := []model.Association{
		{Name: "Wina", Image: devImage("associations/wina.jpg")},
		{Name: "Politika", Image: devImage("associations/politika.png")},
	}
	for _, a := range associations {
		if _, err := c.createAssociation(ctx, a); err != nil {
			return fmt.Errorf("seed association %s: %w", a.Name, err)
		}
	}
	day := func(m time.Month, d int) time.Time { return time.Date(2022, m, d, 0, 0, 0, 0, time.UTC) }
	performances := []model.Performance{
		{Key: "Wina1104", Date: day(time.April, 11), Association: "Wina", Name: "Van je familie moet je het maar hebben", PriceCents: 500, MaxTickets: 30},
		{Key: "Politika0104", Date: day(time.April, 1), Association: "Politika", Name: "Working title", PriceCents: 500, MaxTickets: 30},
		{Key: "Politika0304", Date: day(time.April, 3), Association: "Politika", Name: "Working title", PriceCents: 500, MaxTickets: 30},
		{Key: "Politika0504", Date: day(time.April, 5), Association: "Politika", Name: "Working title", PriceCents: 500, MaxTickets: 30},
	}
	for _, p := range performances {
		if _, err := c.createPerformance(ctx, p); err != nil {
			return fmt.Errorf("seed performance %s: %w", p.Key, err)
		}
	}
	return nil
}
