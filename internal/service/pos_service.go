package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"veira-pos/internal/cart"
	"veira-pos/internal/catalog"
	"veira-pos/internal/ledger"
	"veira-pos/internal/models"
	"veira-pos/internal/seed"
	"veira-pos/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// StateStore persists the state blob, the login flag and checkout
// idempotency keys
type StateStore interface {
	LoadState(ctx context.Context) ([]byte, error)
	SaveState(ctx context.Context, blob []byte) error
	SetAuthenticated(ctx context.Context, authenticated bool) error
	IsAuthenticated(ctx context.Context) (bool, error)
	RememberCheckout(ctx context.Context, key, transactionID string, ttl time.Duration) error
	LookupCheckout(ctx context.Context, key string) (string, bool, error)
	Ping(ctx context.Context) error
}

// EventPublisher publishes committed sale events
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error
	PublishStockLow(ctx context.Context, event *models.StockLowEvent) error
}

// Options tunes a POSService
type Options struct {
	// DefaultVATRate applies to freshly seeded state; nil means 16%
	DefaultVATRate    *decimal.Decimal
	CheckoutDelay     time.Duration
	LowStockThreshold int
	CheckoutKeyTTL    time.Duration

	Now         func() time.Time
	Rand        *rand.Rand
	IDGenerator func(time.Time) string
}

// Session describes the logged in user
type Session struct {
	Authenticated bool            `json:"authenticated"`
	Role          models.UserRole `json:"role"`
	LandingView   string          `json:"landingView"`
}

// SettingsUpdate carries the editable settings fields. Nil fields are unchanged.
type SettingsUpdate struct {
	BusinessName *string              `json:"businessName"`
	KRAPin       *string              `json:"kraPin"`
	VATRate      *decimal.Decimal     `json:"vatRate"`
	OwnerProfile *models.OwnerProfile `json:"ownerProfile"`
	BusinessType *models.BusinessType `json:"businessType"`
}

// POSService owns the whole application state. One RWMutex guards catalog,
// ledger, cart and settings; checkout holds the write lock for its full
// validate-price-record-decrement-clear unit.
type POSService struct {
	mu            sync.RWMutex
	catalog       *catalog.Catalog
	ledger        *ledger.Ledger
	cart          *cart.Cart
	settings      models.Settings
	authenticated bool

	store     StateStore
	publisher EventPublisher
	opts      Options
	logger    *zap.Logger
}

// NewPOSService creates a service with an empty state. Call Load before use.
func NewPOSService(store StateStore, publisher EventPublisher, opts Options) *POSService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = ledger.NewTransactionID
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}
	if opts.CheckoutKeyTTL <= 0 {
		opts.CheckoutKeyTTL = 24 * time.Hour
	}
	if opts.DefaultVATRate == nil || opts.DefaultVATRate.IsNegative() {
		rate := models.DefaultSettings().VATRate
		opts.DefaultVATRate = &rate
	}

	s := &POSService{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    util.Named("pos"),
		cart:      cart.New(),
		settings:  models.DefaultSettings(),
	}
	s.catalog = catalog.New(nil)
	s.ledger = s.newLedger(nil)
	return s
}

func (s *POSService) newLedger(txs []models.Transaction) *ledger.Ledger {
	return ledger.New(txs, ledger.WithClock(s.opts.Now), ledger.WithIDGenerator(s.opts.IDGenerator))
}

// Load restores the saved state. Missing or malformed data, or a history
// without transactions, is replaced by the seeded demo history. Only a store
// read failure is returned.
func (s *POSService) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "POSService.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := &models.AppState{Settings: models.DefaultSettings()}
	state.VATRate = *s.opts.DefaultVATRate
	reseed := true

	data, err := s.store.LoadState(ctx)
	switch {
	case errors.Is(err, models.ErrStateNotFound):
		s.logger.Info("No saved state, seeding demo history")
	case err != nil:
		util.SpanError(span, err)
		return fmt.Errorf("failed to load state: %w", err)
	default:
		decoded, derr := models.DecodeState(data)
		if derr != nil {
			s.logger.Warn("Saved state is malformed, seeding demo history", zap.Error(derr))
			break
		}
		state = decoded
		reseed = len(state.Transactions) == 0
	}

	if state.Products == nil {
		state.Products = seed.Products()
	}
	if reseed {
		state.Transactions = seed.Transactions(seed.Products(), s.opts.Now(), s.opts.Rand, state.VATRate)
	}

	s.catalog = catalog.New(state.Products)
	s.ledger = s.newLedger(state.Transactions)
	s.settings = state.Settings
	s.cart = cart.New()

	auth, err := s.store.IsAuthenticated(ctx)
	if err != nil {
		s.logger.Warn("Failed to read login flag", zap.Error(err))
	}
	s.authenticated = auth

	if reseed {
		s.persistLocked(ctx)
	}

	s.logger.Info("State loaded",
		zap.Int("products", s.catalog.Len()),
		zap.Int("transactions", s.ledger.Len()),
		zap.Bool("seeded", reseed))
	return nil
}

// persistLocked saves the full state. Failures are logged and counted and
// never undo the in-memory mutation. Caller holds the write lock.
func (s *POSService) persistLocked(ctx context.Context) {
	start := time.Now()
	defer func() { util.StatePersistLatency.Observe(time.Since(start).Seconds()) }()

	blob, err := models.EncodeState(&models.AppState{
		Products:     s.catalog.List(),
		Transactions: s.ledger.Snapshot(),
		Settings:     s.settings,
	})
	if err == nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		err = s.store.SaveState(saveCtx, blob)
	}
	if err != nil {
		util.StatePersistFailuresTotal.Inc()
		s.logger.Error("Failed to persist state", zap.Error(err))
	}
}

// Ready reports whether the state store is reachable
func (s *POSService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func landingView(r models.UserRole) string {
	switch r {
	case models.RoleAccountant, models.RoleAuditor:
		return "reports"
	case models.RoleStockManager:
		return "inventory"
	case models.RoleCashier:
		return "pos"
	}
	return "dashboard"
}

func (s *POSService) sessionLocked() Session {
	return Session{
		Authenticated: s.authenticated,
		Role:          s.settings.UserRole,
		LandingView:   landingView(s.settings.UserRole),
	}
}

// Login switches the active role and marks the session authenticated
func (s *POSService) Login(ctx context.Context, role models.UserRole) (Session, error) {
	ctx, span := util.StartSpan(ctx, "POSService.Login")
	defer span.End()

	if !role.Valid() {
		return Session{}, models.NewValidationError("role", "unknown role")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.UserRole = role
	s.authenticated = true
	if err := s.store.SetAuthenticated(ctx, true); err != nil {
		s.logger.Error("Failed to persist login flag", zap.Error(err))
	}
	s.persistLocked(ctx)

	s.logger.Info("User logged in", zap.String("role", role.String()))
	return s.sessionLocked(), nil
}

// Logout clears the authenticated flag, keeping the last role
func (s *POSService) Logout(ctx context.Context) Session {
	ctx, span := util.StartSpan(ctx, "POSService.Logout")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	if err := s.store.SetAuthenticated(ctx, false); err != nil {
		s.logger.Error("Failed to clear login flag", zap.Error(err))
	}
	return s.sessionLocked()
}

// Session returns the current session
func (s *POSService) Session(ctx context.Context) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLocked()
}

// Role returns the active role
func (s *POSService) Role() models.UserRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.UserRole
}

// Settings returns the business settings
func (s *POSService) Settings(ctx context.Context) models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies the non-nil fields of u. The active role is changed
// through Login only.
func (s *POSService) UpdateSettings(ctx context.Context, u SettingsUpdate) (models.Settings, error) {
	ctx, span := util.StartSpan(ctx, "POSService.UpdateSettings")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if u.BusinessName != nil {
		name := strings.TrimSpace(*u.BusinessName)
		if name == "" {
			return models.Settings{}, models.NewValidationError("businessName", "must not be blank")
		}
		next.BusinessName = name
	}
	if u.KRAPin != nil {
		next.KRAPin = strings.ToUpper(strings.TrimSpace(*u.KRAPin))
	}
	if u.VATRate != nil {
		if u.VATRate.IsNegative() {
			return models.Settings{}, models.NewValidationError("vatRate", "must not be negative")
		}
		next.VATRate = *u.VATRate
	}
	if u.OwnerProfile != nil {
		if !u.OwnerProfile.Valid() {
			return models.Settings{}, models.NewValidationError("ownerProfile", "unknown profile")
		}
		next.OwnerProfile = *u.OwnerProfile
	}
	if u.BusinessType != nil {
		if !u.BusinessType.Valid() {
			return models.Settings{}, models.NewValidationError("businessType", "unknown business type")
		}
		next.BusinessType = *u.BusinessType
	}

	s.settings = next
	s.persistLocked(ctx)
	return next, nil
}
