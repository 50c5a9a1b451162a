// Package runtime assembles the core components behind one serialized
// operation surface. Every public operation runs under a single mutex,
// and the notifications a successful operation emitted are journaled,
// archived and fanned out before the next operation starts.
package runtime

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/events"
	"github.com/polyphene/recs-contract/internal/exchange"
	"github.com/polyphene/recs-contract/internal/ledger"
	"github.com/polyphene/recs-contract/internal/native"
	"github.com/polyphene/recs-contract/internal/observability"
	"github.com/polyphene/recs-contract/internal/roles"
	"github.com/polyphene/recs-contract/internal/storage"
)

// Config assembles a Runtime. Deployer is required; everything else is
// optional and disabled when nil.
type Config struct {
	// Deployer receives every role on startup.
	Deployer domain.Address

	// Journal persists the notifications of successful operations.
	Journal storage.EventStore

	// Archive persists settled purchases.
	Archive storage.PurchaseStore

	// Bus fans notifications out to live subscribers.
	Bus *events.Bus

	// Metrics receives operation counters and gauges.
	Metrics *observability.Metrics

	Logger *log.Logger

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Runtime serializes operations against the ledger, the exchange and the
// native bank, and drives the journal side effects.
type Runtime struct {
	mu sync.Mutex

	roles    *roles.Registry
	ledger   *ledger.Ledger
	bank     *native.Bank
	exchange *exchange.Engine
	recorder *events.Recorder

	journal storage.EventStore
	archive storage.PurchaseStore
	bus     *events.Bus
	metrics *observability.Metrics
	logger  *log.Logger
	now     func() time.Time

	seq uint64 // last assigned journal sequence number
}

// New creates a Runtime with an integrated exchange over a fresh ledger.
// The deployer is granted every role.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[runtime] ", log.LstdFlags|log.Lshortfile)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	recorder := &events.Recorder{}
	registry := roles.NewRegistry(cfg.Deployer)
	ldg := ledger.New(registry, recorder)
	bank := native.NewBank()
	engine := exchange.NewIntegrated(ldg.OwnedAccess(), bank, recorder)

	return &Runtime{
		roles:    registry,
		ledger:   ldg,
		bank:     bank,
		exchange: engine,
		recorder: recorder,
		journal:  cfg.Journal,
		archive:  cfg.Archive,
		bus:      cfg.Bus,
		metrics:  cfg.Metrics,
		logger:   logger,
		now:      now,
	}
}

// Grant gives account a role. Caller must hold the admin role.
func (r *Runtime) Grant(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.roles.Grant(caller, role, account)
	r.completed(ctx, "grant", start, err)
	return err
}

// Mint creates a new certificate token and applies its initial
// allocations. Returns the assigned token id.
func (r *Runtime) Mint(
	ctx context.Context,
	caller domain.Address,
	metadataURI string,
	amount uint64,
	recipients []domain.Address,
	allocations []uint64,
	redeemedFlags []bool,
) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	tokenID, err := r.ledger.MintAndAllocate(caller, metadataURI, amount, recipients, allocations, redeemedFlags)
	r.completed(ctx, "mint", start, err)
	return tokenID, err
}

// Redeem retires part of the caller's balance.
func (r *Runtime) Redeem(ctx context.Context, caller domain.Address, tokenID uint64, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.ledger.Redeem(caller, tokenID, amount)
	r.completed(ctx, "redeem", start, err)
	return err
}

// SetRedemptionStatement attaches the write-once attestation document to a
// fully redeemed token.
func (r *Runtime) SetRedemptionStatement(ctx context.Context, caller domain.Address, tokenID uint64, statementURI string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.ledger.SetRedemptionStatement(caller, tokenID, statementURI)
	r.completed(ctx, "set_redemption_statement", start, err)
	return err
}

// SetApprovalForAll grants or revokes operator delegation over every token
// the owner holds.
func (r *Runtime) SetApprovalForAll(ctx context.Context, owner, operator domain.Address, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.ledger.SetApprovalForAll(owner, operator, approved)
	r.completed(ctx, "set_approval_for_all", start, err)
	return err
}

// Transfer moves unredeemed units between accounts. The caller must be the
// owner or an approved operator.
func (r *Runtime) Transfer(ctx context.Context, caller, from, to domain.Address, tokenID uint64, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.ledger.Transfer(caller, from, to, tokenID, amount)
	r.completed(ctx, "transfer", start, err)
	if err == nil && r.metrics != nil {
		r.metrics.UnitsTransferred.Add(float64(amount))
	}
	return err
}

// List creates or overwrites the caller's sale listing.
func (r *Runtime) List(ctx context.Context, caller domain.Address, tokenID uint64, amount uint64, unitPrice *uint256.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.exchange.List(caller, tokenID, amount, unitPrice)
	r.completed(ctx, "list", start, err)
	return err
}

// Buy settles a purchase against a listing, paying from the caller's
// native balance.
func (r *Runtime) Buy(ctx context.Context, caller domain.Address, tokenID uint64, seller domain.Address, amount uint64, paid *uint256.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	err := r.exchange.Buy(caller, tokenID, seller, amount, paid)
	r.completed(ctx, "buy", start, err)
	return err
}

// Deposit credits native currency to an account.
func (r *Runtime) Deposit(ctx context.Context, account domain.Address, value *uint256.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	r.bank.Deposit(account, value)
	r.completed(ctx, "deposit", start, nil)
}

// completed finishes one operation: it updates metrics and, when the
// operation succeeded, journals, archives and fans out everything it
// emitted. Called with the runtime mutex held.
func (r *Runtime) completed(ctx context.Context, op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.OperationsTotal.WithLabelValues(op).Inc()
		r.metrics.OperationDuration.WithLabelValues(op).Observe(r.now().Sub(start).Seconds())
		if err != nil {
			r.metrics.OperationsRejected.WithLabelValues(op, errorKind(err)).Inc()
		}
	}
	if err != nil {
		return
	}

	emitted := r.recorder.Drain()
	if len(emitted) == 0 {
		return
	}

	opID := uuid.NewString()
	at := r.now().UnixMilli()

	for _, event := range emitted {
		r.seq++
		r.journalEvent(ctx, opID, at, event)
		r.archivePurchase(ctx, opID, at, event)
		r.countEvent(event)
		if r.bus != nil {
			r.bus.Publish(event)
		}
	}

	if r.metrics != nil {
		r.metrics.TokenCount.Set(float64(r.ledger.TokenCount()))
		r.metrics.ActiveListings.Set(float64(len(r.exchange.CurrentListings())))
	}
}

// journalEvent writes one notification to the journal. Failures are logged
// and counted, never surfaced: the state change already happened.
func (r *Runtime) journalEvent(ctx context.Context, opID string, at int64, event domain.Event) {
	if r.journal == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Printf("marshal %s notification: %v", event.Kind(), err)
		if r.metrics != nil {
			r.metrics.JournalErrors.Inc()
		}
		return
	}

	rec := &storage.EventRecord{
		Seq:        r.seq,
		OpID:       opID,
		Kind:       event.Kind(),
		Payload:    payload,
		RecordedAt: at,
	}
	if err := r.journal.Insert(ctx, rec); err != nil {
		r.logger.Printf("journal seq=%d kind=%s: %v", rec.Seq, rec.Kind, err)
		if r.metrics != nil {
			r.metrics.JournalErrors.Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.EventsJournaled.Inc()
	}
}

// archivePurchase writes a settled purchase to the archive store.
func (r *Runtime) archivePurchase(ctx context.Context, opID string, at int64, event domain.Event) {
	if r.archive == nil {
		return
	}
	purchase, ok := event.(domain.PurchaseCompleted)
	if !ok {
		return
	}

	total := new(uint256.Int).Mul(uint256.NewInt(purchase.Amount), purchase.UnitPrice)
	rec := &storage.PurchaseRecord{
		OpID:       opID,
		TokenID:    purchase.TokenID,
		Buyer:      string(purchase.Buyer),
		Seller:     string(purchase.Seller),
		Amount:     purchase.Amount,
		UnitPrice:  purchase.UnitPrice.Dec(),
		TotalPaid:  total.Dec(),
		ExecutedAt: at,
	}
	if err := r.archive.Insert(ctx, rec); err != nil {
		r.logger.Printf("archive purchase op=%s token=%d: %v", opID, rec.TokenID, err)
		if r.metrics != nil {
			r.metrics.ArchiveErrors.Inc()
		}
	}
}

// countEvent updates the per-kind counters.
func (r *Runtime) countEvent(event domain.Event) {
	if r.metrics == nil {
		return
	}
	switch e := event.(type) {
	case domain.Minted:
		r.metrics.TokensMinted.Inc()
		r.metrics.UnitsMinted.Add(float64(e.Amount))
	case domain.Redeemed:
		r.metrics.UnitsRedeemed.Add(float64(e.Amount))
	case domain.ListingCreated:
		r.metrics.ListingsCreated.Inc()
	case domain.PurchaseCompleted:
		r.metrics.PurchasesCompleted.Inc()
		r.metrics.UnitsSold.Add(float64(e.Amount))
	}
}

// errorKind maps a failure to its rejection label.
func errorKind(err error) string {
	switch {
	case domain.IsAuthorization(err):
		return "authorization"
	case domain.IsValidation(err):
		return "validation"
	case domain.IsState(err):
		return "state"
	default:
		return "internal"
	}
}
