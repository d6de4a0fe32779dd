package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const (
	modeSync  = "sync"
	modeAsync = "async"

	defaultFlushInterval = 250 * time.Millisecond
	defaultIdleTTL       = 30 * time.Minute
)

// View is an immutable snapshot of a cart returned to callers.
type View struct {
	Owner           string
	Lines           []Line
	Total           decimal.Decimal
	Count           int
	VendorSubtotals []VendorSubtotal
}

func viewOf(owner string, c *Cart) View {
	return View{
		Owner:           owner,
		Lines:           c.Lines(),
		Total:           c.Total(),
		Count:           c.Count(),
		VendorSubtotals: c.SubtotalsByVendor(),
	}
}

// ServiceParams wires the cart coordinator.
type ServiceParams struct {
	Repository    Repository
	Async         bool
	FlushInterval time.Duration
	// IdleTTL is how long a clean aggregate stays cached after its last use.
	// Zero picks the default; a negative value disables eviction.
	IdleTTL time.Duration
	Metrics *metrics.CartMetrics
	Logger  *logger.Logger
}

// Service owns one in-memory aggregate per owner, serializes calls per owner
// and persists through the Repository after each mutation. In async mode a
// single flusher (Run) writes the latest state of dirty owners. In both modes
// Run retries failed writes and drops aggregates idle for longer than IdleTTL.
type Service struct {
	repo     Repository
	async    bool
	interval time.Duration
	idleTTL  time.Duration
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

type entry struct {
	mu       sync.Mutex
	cart     *Cart
	dirty    bool
	evicted  bool
	lastUsed time.Time
}

// NewService validates dependencies and builds the coordinator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, errors.New("cart repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	interval := params.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	idleTTL := params.IdleTTL
	if idleTTL == 0 {
		idleTTL = defaultIdleTTL
	}
	return &Service{
		repo:     params.Repository,
		async:    params.Async,
		interval: interval,
		idleTTL:  idleTTL,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
		entries:  make(map[string]*entry),
		pending:  make(map[string]struct{}),
	}, nil
}

// Get returns the owner's cart, loading it on first use.
func (s *Service) Get(ctx context.Context, owner string) (View, error) {
	var view View
	err := s.withCart(ctx, owner, "", func(c *Cart) (bool, error) {
		view = viewOf(owner, c)
		return false, nil
	})
	return view, err
}

// AddItem merges quantity of the product (with options) into the owner's cart.
func (s *Service) AddItem(ctx context.Context, owner string, p Product, quantity int, opts []SelectedOption) (View, error) {
	return s.mutate(ctx, owner, "add", func(c *Cart) (bool, error) {
		_, err := c.AddItem(p, quantity, opts)
		return err == nil, err
	})
}

// RemoveItem deletes a line; an unknown line id leaves the cart unchanged.
func (s *Service) RemoveItem(ctx context.Context, owner, lineID string) (View, error) {
	return s.mutate(ctx, owner, "remove", func(c *Cart) (bool, error) {
		return c.RemoveItem(lineID), nil
	})
}

// UpdateQuantity sets a line's quantity exactly; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, owner, lineID string, quantity int) (View, error) {
	return s.mutate(ctx, owner, "update", func(c *Cart) (bool, error) {
		return c.UpdateQuantity(lineID, quantity)
	})
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, owner string) (View, error) {
	return s.mutate(ctx, owner, "clear", func(c *Cart) (bool, error) {
		changed := !c.IsEmpty()
		c.Clear()
		return changed, nil
	})
}

// Mutate runs fn against the owner's cart while holding the owner's lock.
// fn reports whether it changed the cart; changes are persisted like any
// other mutation. An error from fn is returned as-is and nothing is persisted
// unless fn also reported a change.
func (s *Service) Mutate(ctx context.Context, owner, op string, fn func(c *Cart) (bool, error)) (View, error) {
	return s.mutate(ctx, owner, op, fn)
}

func (s *Service) mutate(ctx context.Context, owner, op string, fn func(c *Cart) (bool, error)) (View, error) {
	var view View
	err := s.withCart(ctx, owner, op, func(c *Cart) (bool, error) {
		changed, err := fn(c)
		view = viewOf(owner, c)
		return changed, err
	})
	return view, err
}

func (s *Service) withCart(ctx context.Context, owner, op string, fn func(c *Cart) (bool, error)) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	e := s.acquire(owner)
	defer e.mu.Unlock()
	e.lastUsed = s.now()

	if e.cart == nil {
		loaded, err := s.repo.Load(ctx, owner)
		if err != nil {
			s.logg.Error(s.logg.WithCartOwner(ctx, owner), "cart.load.failed", err)
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cart could not be loaded")
		}
		e.cart = loaded
	}

	changed, fnErr := fn(e.cart)
	if !changed {
		return fnErr
	}
	s.metrics.IncMutation(op)

	if s.async {
		e.dirty = true
		s.markPending(owner)
		return fnErr
	}

	if err := s.repo.Save(ctx, owner, e.cart); err != nil {
		e.dirty = true
		s.markPending(owner)
		s.metrics.IncPersistFailure(modeSync)
		s.logg.Error(s.logg.WithCartOwner(ctx, owner), "cart.persist.failed", err)
		perr := pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cart changes applied but not saved").
			WithDetails(map[string]any{"owner": owner, "op": op})
		return multierr.Append(fnErr, perr)
	}
	e.dirty = false
	return fnErr
}

// acquire returns the locked entry for owner, creating it when missing.
func (s *Service) acquire(owner string) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[owner]
		if !ok {
			e = &entry{}
			s.entries[owner] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.evicted {
			return e
		}
		e.mu.Unlock()
	}
}

func (s *Service) lookup(owner string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[owner]
}

// Reset writes any unsaved state for owner and drops the in-memory aggregate.
func (s *Service) Reset(ctx context.Context, owner string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil
	}
	e := s.lookup(owner)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return nil
	}
	if e.dirty && e.cart != nil {
		if err := s.repo.Save(ctx, owner, e.cart); err != nil {
			s.metrics.IncPersistFailure(s.mode())
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "cart could not be saved before reset")
		}
		e.dirty = false
	}
	e.evicted = true

	s.mu.Lock()
	if s.entries[owner] == e {
		delete(s.entries, owner)
	}
	s.mu.Unlock()
	return nil
}

// evictIdle drops clean aggregates not used since before now-idleTTL. Busy
// or dirty entries are left alone; the next call reloads from the Repository.
func (s *Service) evictIdle(ctx context.Context, now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	candidates := make(map[string]*entry, len(s.entries))
	for owner, e := range s.entries {
		candidates[owner] = e
	}
	s.mu.Unlock()

	evicted := 0
	for owner, e := range candidates {
		if !e.mu.TryLock() {
			continue
		}
		if !e.evicted && !e.dirty && now.Sub(e.lastUsed) >= s.idleTTL {
			e.evicted = true
			s.mu.Lock()
			if s.entries[owner] == e {
				delete(s.entries, owner)
			}
			s.mu.Unlock()
			evicted++
		}
		e.mu.Unlock()
	}
	if evicted > 0 {
		s.logg.Debug(s.logg.WithField(ctx, "evicted", evicted), "cart.cache.evicted_idle")
	}
	return evicted
}

// Cached returns how many owners currently have an in-memory aggregate.
func (s *Service) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Service) mode() string {
	if s.async {
		return modeAsync
	}
	return modeSync
}
