package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/queue"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/verification"
)

// codeInsertRetries bounds how often a purchase insert is retried after
// the unique index rejected a freshly generated code.
const codeInsertRetries = 3

// notifyTimeout bounds the post-commit confirmation.
const notifyTimeout = 10 * time.Second

// Notifier delivers purchase confirmations after commit.  Both the queue
// publisher and the mailer implement it.
type Notifier interface {
	Channel() string
	PurchaseConfirmed(ctx context.Context, ev queue.PurchaseConfirmedEvent) error
}

// PurchaseService is the purchase transaction manager.
type PurchaseService struct {
	st          store.Store
	validator   *Validator
	audit       *AuditLog
	codes       *verification.Generator
	maxAttempts int
	notifier    Notifier
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

// Option configures a PurchaseService.
type Option func(*PurchaseService)

// WithNotifier sets the confirmation channel.  Without one no confirmation
// is sent.
func WithNotifier(n Notifier) Option { return func(s *PurchaseService) { s.notifier = n } }

// WithMetrics records purchase outcomes on m.
func WithMetrics(m *metrics.Metrics) Option { return func(s *PurchaseService) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *PurchaseService) { s.log = l } }

// WithCodeGenerator replaces the verification code source and the number
// of draws allowed per purchase.
func WithCodeGenerator(g *verification.Generator, maxAttempts int) Option {
	return func(s *PurchaseService) { s.codes, s.maxAttempts = g, maxAttempts }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *PurchaseService) { s.now = now } }

// NewPurchaseService returns a PurchaseService over st.
func NewPurchaseService(st store.Store, audit *AuditLog, opts ...Option) *PurchaseService {
	s := &PurchaseService{
		st:          st,
		validator:   NewValidator(),
		audit:       audit,
		codes:       verification.NewGenerator(nil),
		maxAttempts: verification.DefaultMaxAttempts,
		log:         zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandlePurchase validates in, draws an unused verification code and
// stores the purchase with the current time and createdBy as creator.  It
// writes no audit entry and sends no confirmation; Create does both.
func (s *PurchaseService) HandlePurchase(ctx context.Context, in PurchaseInput, createdBy uint64) (*model.Purchase, error) {
	return s.commit(ctx, in, createdBy, nil)
}

// Create registers a purchase on behalf of actor, records a CREATE audit
// entry in the same transaction and sends the confirmation after commit.
func (s *PurchaseService) Create(ctx context.Context, actor Actor, in PurchaseInput) (*model.Purchase, error) {
	if !actor.Caps.CanCreate {
		return nil, ErrForbidden
	}
	p, err := s.commit(ctx, in, actor.UserID, func(q store.Queries, p *model.Purchase) error {
		_, err := s.audit.Log(ctx, q, p.ID, model.AuditCreate, actor, nil)
		return err
	})
	s.metrics.PurchaseAction(string(model.AuditCreate), outcome(err))
	if err != nil {
		return nil, err
	}
	s.log.Info("purchase created",
		zap.Uint64("purchase_id", p.ID),
		zap.String("ticket1", p.Ticket1),
		zap.String("ticket2", p.Ticket2),
		zap.Uint64("user_id", actor.UserID))
	s.notify(ctx, p)
	return p, nil
}

func (s *PurchaseService) commit(ctx context.Context, in PurchaseInput, createdBy uint64, inTx func(q store.Queries, p *model.Purchase) error) (*model.Purchase, error) {
	in = in.Normalized()
	res, err := s.validator.Validate(ctx, s.st, in)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, res.Err()
	}

	var p *model.Purchase
	err = s.st.InTx(ctx, func(q store.Queries) error {
		if err := q.LockPerformances(ctx, sortedKeys(in.Performance1, in.Performance2)...); err != nil {
			return fmt.Errorf("lock performances: %w", err)
		}
		res, err := s.validator.Validate(ctx, q, in)
		if err != nil {
			return err
		}
		if !res.OK() {
			return res.errWith(ErrSoldOutDuringCommit)
		}
		p = &model.Purchase{
			Date:      s.now().UTC(),
			Name:      in.Name,
			Email:     in.Email,
			Ticket1:   in.Performance1,
			Ticket2:   in.Performance2,
			CreatedBy: createdBy,
		}
		if err := s.insertWithCode(ctx, q, p); err != nil {
			return err
		}
		if inTx != nil {
			return inTx(q, p)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, verification.ErrGenerationExhausted) {
			s.log.Error("verification code space exhausted", zap.Error(err))
		}
		return nil, err
	}
	return p, nil
}

// insertWithCode draws a code outside the known set and inserts p.  The
// unique index has the final word: a collision with a concurrent purchase
// adds the code to the known set and retries.
func (s *PurchaseService) insertWithCode(ctx context.Context, q store.Queries, p *model.Purchase) error {
	existing, err := q.VerificationCodes(ctx)
	if err != nil {
		return fmt.Errorf("load verification codes: %w", err)
	}
	for attempt := 1; ; attempt++ {
		code, err := s.codes.GenerateUniqueCode(existing, s.maxAttempts)
		if err != nil {
			return err
		}
		p.VerificationCode = code
		err = q.InsertPurchase(ctx, p)
		if !errors.Is(err, store.ErrDuplicateCode) {
			return err
		}
		if attempt >= codeInsertRetries {
			return fmt.Errorf("%w: code still taken after %d inserts", verification.ErrGenerationExhausted, attempt)
		}
		existing[code] = struct{}{}
		s.log.Warn("verification code collided on insert", zap.String("code", code), zap.Int("attempt", attempt))
	}
}

// UpdateResult describes an applied edit.
type UpdateResult struct {
	Purchase *model.Purchase `json:"purchase"`
	// PriceDifference is the new ticket total minus the old one, in cents.
	PriceDifference int  `json:"price_difference_cents"`
	Changed         bool `json:"changed"`
}

// Update replaces buyer details and ticket selection of purchase id.  The
// purchase's own tickets count as available while validating.  When
// anything changed, one UPDATE audit entry records {old, new} per field.
func (s *PurchaseService) Update(ctx context.Context, actor Actor, id uint64, in PurchaseInput) (*UpdateResult, error) {
	if !actor.Caps.CanEdit {
		return nil, ErrForbidden
	}
	in = in.Normalized()
	current, err := s.st.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.validator.ValidateEdit(ctx, s.st, in, current)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.metrics.PurchaseAction(string(model.AuditUpdate), outcome(res.Err()))
		return nil, res.Err()
	}

	var out *UpdateResult
	err = s.st.InTx(ctx, func(q store.Queries) error {
		keys := sortedKeys(in.Performance1, in.Performance2, current.Ticket1, current.Ticket2)
		if err := q.LockPerformances(ctx, keys...); err != nil {
			return fmt.Errorf("lock performances: %w", err)
		}
		current, err := q.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		res, err := s.validator.ValidateEdit(ctx, q, in, current)
		if err != nil {
			return err
		}
		if !res.OK() {
			return res.errWith(ErrSoldOutDuringCommit)
		}
		diff, err := priceDifference(ctx, q, current, in)
		if err != nil {
			return err
		}
		changes := purchaseChanges(current, in)
		out = &UpdateResult{Purchase: current, PriceDifference: diff, Changed: len(changes) > 0}
		if !out.Changed {
			return nil
		}

		now := s.now().UTC()
		updated := *current
		updated.Name, updated.Email = in.Name, in.Email
		updated.Ticket1, updated.Ticket2 = in.Performance1, in.Performance2
		updated.ModifiedBy, updated.ModifiedDate = &actor.UserID, &now
		if err := q.UpdatePurchase(ctx, &updated); err != nil {
			return fmt.Errorf("update purchase %d: %w", id, err)
		}
		if _, err := s.audit.Log(ctx, q, id, model.AuditUpdate, actor, changes); err != nil {
			return err
		}
		out.Purchase = &updated
		return nil
	})
	s.metrics.PurchaseAction(string(model.AuditUpdate), outcome(err))
	if err != nil {
		return nil, err
	}
	if out.Changed {
		s.log.Info("purchase updated",
			zap.Uint64("purchase_id", id),
			zap.Int("price_difference_cents", out.PriceDifference),
			zap.Uint64("user_id", actor.UserID))
	}
	return out, nil
}

// Delete removes purchase id after recording a DELETE audit entry with a
// snapshot of the row.  The entry outlives the purchase.
func (s *PurchaseService) Delete(ctx context.Context, actor Actor, id uint64) (*model.Purchase, error) {
	if !actor.Caps.CanEdit {
		return nil, ErrForbidden
	}
	var deleted *model.Purchase
	err := s.st.InTx(ctx, func(q store.Queries) error {
		p, err := q.GetPurchase(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.audit.Log(ctx, q, id, model.AuditDelete, actor, p.Snapshot()); err != nil {
			return err
		}
		if err := q.DeletePurchase(ctx, id); err != nil {
			return fmt.Errorf("delete purchase %d: %w", id, err)
		}
		deleted = p
		return nil
	})
	s.metrics.PurchaseAction(string(model.AuditDelete), outcome(err))
	if err != nil {
		return nil, err
	}
	s.log.Info("purchase deleted", zap.Uint64("purchase_id", id), zap.Uint64("user_id", actor.UserID))
	return deleted, nil
}

// PurchaseDetail is a purchase with its two performances resolved.
type PurchaseDetail struct {
	Purchase     model.Purchase       `json:"purchase"`
	Performances [2]model.Performance `json:"performances"`
	TotalCents   uint32               `json:"total_cents"`
}

// Get returns purchase id with its performances.
func (s *PurchaseService) Get(ctx context.Context, actor Actor, id uint64) (*PurchaseDetail, error) {
	if !actor.Caps.CanView {
		return nil, ErrForbidden
	}
	p, err := s.st.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	return loadDetail(ctx, s.st, p)
}

// List returns every purchase, newest first.
func (s *PurchaseService) List(ctx context.Context, actor Actor) ([]model.Purchase, error) {
	if !actor.Caps.CanView {
		return nil, ErrForbidden
	}
	return s.st.ListPurchases(ctx)
}

func loadDetail(ctx context.Context, q store.Catalog, p *model.Purchase) (*PurchaseDetail, error) {
	d := &PurchaseDetail{Purchase: *p}
	for i, key := range p.Tickets() {
		perf, err := q.GetPerformance(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load performance %s: %w", key, err)
		}
		d.Performances[i] = *perf
		d.TotalCents += perf.PriceCents
	}
	return d, nil
}

func (s *PurchaseService) notify(ctx context.Context, p *model.Purchase) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	channel := s.notifier.Channel()
	d, err := loadDetail(ctx, s.st, p)
	if err == nil {
		err = s.notifier.PurchaseConfirmed(ctx, confirmationEvent(d, s.now().UTC()))
	}
	if err != nil {
		s.metrics.Notification(channel, "failed")
		s.log.Warn("purchase confirmation failed", zap.Uint64("purchase_id", p.ID), zap.String("channel", channel), zap.Error(err))
		return
	}
	s.metrics.Notification(channel, "sent")
}

func confirmationEvent(d *PurchaseDetail, at time.Time) queue.PurchaseConfirmedEvent {
	ev := queue.PurchaseConfirmedEvent{
		PurchaseID:       d.Purchase.ID,
		Name:             d.Purchase.Name,
		Email:            d.Purchase.Email,
		VerificationCode: d.Purchase.VerificationCode,
		TotalCents:       d.TotalCents,
		ConfirmedAt:      at,
	}
	for _, perf := range d.Performances {
		ev.Performances = append(ev.Performances, queue.PerformanceInfo{
			Key:         perf.Key,
			Name:        perf.Name,
			Association: perf.Association,
			Date:        perf.Date,
			PriceCents:  perf.PriceCents,
		})
	}
	return ev
}

func priceDifference(ctx context.Context, q store.Catalog, current *model.Purchase, in PurchaseInput) (int, error) {
	sum := func(keys ...string) (int, error) {
		total := 0
		for _, k := range keys {
			p, err := q.GetPerformance(ctx, k)
			if err != nil {
				return 0, fmt.Errorf("load performance %s: %w", k, err)
			}
			total += int(p.PriceCents)
		}
		return total, nil
	}
	oldTotal, err := sum(current.Ticket1, current.Ticket2)
	if err != nil {
		return 0, err
	}
	newTotal, err := sum(in.Performance1, in.Performance2)
	if err != nil {
		return 0, err
	}
	return newTotal - oldTotal, nil
}

func purchaseChanges(current *model.Purchase, in PurchaseInput) map[string]any {
	changes := map[string]any{}
	add := func(field, before, after string) {
		if before != after {
			changes[field] = map[string]any{"old": before, "new": after}
		}
	}
	add("name", current.Name, in.Name)
	add("email", current.Email, in.Email)
	add("ticket1", current.Ticket1, in.Performance1)
	add("ticket2", current.Ticket2, in.Performance2)
	return changes
}

// sortedKeys returns the distinct non-empty keys in lock order.
func sortedKeys(keys ...string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSoldOutDuringCommit):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "rejected"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
