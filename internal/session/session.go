package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/analytics"
	budgetEngine "github.com/AbrarAhmad001/antigravity-budget/internal/budget"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/common/validation"
	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/events"
	"github.com/AbrarAhmad001/antigravity-budget/internal/reconcile"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
)

// BackendAPI is the slice of the backend surface the session consumes.
// Alerts are deliberately absent: the session computes them locally from
// budgets and the monthly summary so tier changes show up without a refetch.
type BackendAPI interface {
	ProcessText(ctx context.Context, text string) ([]transaction.Raw, error)
	ProcessImage(ctx context.Context, filename string, content io.Reader) ([]transaction.Raw, error)
	Confirm(ctx context.Context, batch []transaction.Transaction) error
	Categories(ctx context.Context) (taxonomy.Catalog, error)
	SaveCategories(ctx context.Context, catalog taxonomy.Catalog) error
	Budgets(ctx context.Context) ([]budgetDatamodel.Budget, error)
	CreateBudget(ctx context.Context, b budgetDatamodel.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	MonthlySummary(ctx context.Context, month, year int) (summaryDatamodel.Summary, error)
	AvailableYears(ctx context.Context) ([]int, error)
	OverallSavings(ctx context.Context) (summaryDatamodel.OverallSavings, error)
}

// State slice names carried in slice-updated events.
const (
	SliceDrafts     = "drafts"
	SliceCategories = "categories"
	SliceBudgets    = "budgets"
	SliceAlerts     = "alerts"
	SliceMonthly    = "monthly"
	SliceOverall    = "overall"
	SliceYears      = "years"
)

// Operation names used for the in-flight guards. One guard per mutating
// operation so a slow confirm does not block adding a budget.
const (
	opCapture    = "capture"
	opConfirm    = "confirm"
	opBudget     = "budget"
	opCategories = "categories"
	opRefresh    = "refresh"
)

// Session holds all client-side state for one user of the capture tool:
// the draft batch being reconciled, the taxonomy, budgets and the derived
// period views. All methods are safe for concurrent use.
type Session struct {
	backend BackendAPI
	bus     *events.EventBus
	logger  *slog.Logger

	mu      sync.RWMutex
	catalog taxonomy.Catalog
	budgets []budgetDatamodel.Budget
	alerts  []budgetDatamodel.Alert
	monthly summaryDatamodel.Summary
	overall summaryDatamodel.OverallSavings
	years   []int
	drafts  reconcile.Batch
	month   int
	year    int

	busyMu sync.Mutex
	busy   map[string]bool
}

func NewSession(backend BackendAPI, bus *events.EventBus, logger *slog.Logger) *Session {
	now := time.Now()
	return &Session{
		backend: backend,
		bus:     bus,
		logger:  logger,
		month:   int(now.Month()),
		year:    now.Year(),
		busy:    make(map[string]bool),
	}
}

// begin marks op as in flight; a second caller gets ErrOperationInFlight
// instead of queueing behind the first.
func (s *Session) begin(op string) error {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if s.busy[op] {
		return errors.ErrOperationInFlight
	}
	s.busy[op] = true
	return nil
}

func (s *Session) end(op string) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	s.busy[op] = false
}

// Busy reports whether the named operation is currently running.
func (s *Session) Busy(op string) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	return s.busy[op]
}

// Load populates every state slice from the backend. The independent
// fetches run concurrently; the first failure wins.
func (s *Session) Load(ctx context.Context) error {
	if err := s.begin(opRefresh); err != nil {
		return err
	}
	defer s.end(opRefresh)

	s.mu.RLock()
	month, year := s.month, s.year
	s.mu.RUnlock()

	var (
		catalog taxonomy.Catalog
		budgets []budgetDatamodel.Budget
		monthly summaryDatamodel.Summary
		overall summaryDatamodel.OverallSavings
		years   []int
		errs    [5]error
		wg      sync.WaitGroup
	)

	wg.Add(5)
	go func() { defer wg.Done(); catalog, errs[0] = s.backend.Categories(ctx) }()
	go func() { defer wg.Done(); budgets, errs[1] = s.backend.Budgets(ctx) }()
	go func() { defer wg.Done(); monthly, errs[2] = s.backend.MonthlySummary(ctx, month, year) }()
	go func() { defer wg.Done(); overall, errs[3] = s.backend.OverallSavings(ctx) }()
	go func() { defer wg.Done(); years, errs[4] = s.backend.AvailableYears(ctx) }()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.logger.Error("session load failed", "error", err)
			return err
		}
	}

	s.mu.Lock()
	s.catalog = catalog
	s.budgets = budgets
	s.monthly = monthly
	s.overall = overall
	s.years = years
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceCategories, SliceBudgets, SliceMonthly, SliceOverall, SliceYears, SliceAlerts)
	s.logger.Info("session loaded", "budgets", len(budgets), "years", len(years))
	return nil
}

// SetPeriod switches the selected month/year and refreshes only the
// period-scoped slices. Taxonomy, budgets and overall savings are not
// period-scoped and keep their cached values.
func (s *Session) SetPeriod(ctx context.Context, month, year int) error {
	if month < 1 || month > 12 {
		return errors.NewValidationFieldError("month", "month must be between 1 and 12", errors.ErrCodeInvalidPeriod)
	}
	if year < 1 {
		return errors.NewValidationFieldError("year", "year must be positive", errors.ErrCodeInvalidPeriod)
	}

	if err := s.begin(opRefresh); err != nil {
		return err
	}
	defer s.end(opRefresh)

	monthly, err := s.backend.MonthlySummary(ctx, month, year)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.month = month
	s.year = year
	s.monthly = monthly
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceMonthly, SliceAlerts)
	return nil
}

func (s *Session) Period() (month, year int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.month, s.year
}

// recomputeAlertsLocked derives the alert list for the selected period
// from cached budgets, the monthly summary and the savings set. Callers
// must hold s.mu.
func (s *Session) recomputeAlertsLocked() {
	scoped := budgetEngine.ForPeriod(s.budgets, s.month, s.year)
	s.alerts = budgetEngine.AlertsFor(scoped, s.monthly, s.catalog.Savings)
}

// CaptureText runs text extraction and appends the results to the draft
// batch. Extraction yielding nothing returns a typed error; the batch is
// left unchanged.
func (s *Session) CaptureText(ctx context.Context, text string) (int, error) {
	if err := s.begin(opCapture); err != nil {
		return 0, err
	}
	defer s.end(opCapture)

	raws, err := s.backend.ProcessText(ctx, text)
	if err != nil {
		return 0, err
	}
	return s.appendDrafts(ctx, raws)
}

// CaptureImage runs receipt extraction on an uploaded image.
func (s *Session) CaptureImage(ctx context.Context, filename string, content io.Reader) (int, error) {
	if err := s.begin(opCapture); err != nil {
		return 0, err
	}
	defer s.end(opCapture)

	raws, err := s.backend.ProcessImage(ctx, filename, content)
	if err != nil {
		return 0, err
	}
	return s.appendDrafts(ctx, raws)
}

func (s *Session) appendDrafts(ctx context.Context, raws []transaction.Raw) (int, error) {
	if len(raws) == 0 {
		return 0, errors.NewNotFoundError("no transactions could be extracted", errors.ErrCodeNothingExtracted)
	}

	normalized := reconcile.NewBatch(raws)

	s.mu.Lock()
	s.drafts = append(s.drafts, normalized...)
	total := len(s.drafts)
	s.mu.Unlock()

	s.publish(ctx, SliceDrafts)
	s.logger.Info("drafts appended", "added", len(normalized), "total", total)
	return len(normalized), nil
}

// Drafts returns a copy of the current draft batch.
func (s *Session) Drafts() reconcile.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts.Clone()
}

// UpdateDraft edits one field of one draft entry, renormalizing the entry.
func (s *Session) UpdateDraft(ctx context.Context, i int, field string, value any) error {
	s.mu.Lock()
	err := s.drafts.SetField(i, field, value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(ctx, SliceDrafts)
	return nil
}

// DeleteDraft removes one entry; later entries shift down by one.
func (s *Session) DeleteDraft(ctx context.Context, i int) error {
	s.mu.Lock()
	next, err := s.drafts.Delete(i)
	if err == nil {
		s.drafts = next
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(ctx, SliceDrafts)
	return nil
}

// PreviewSummary aggregates the draft batch as if it were already saved.
func (s *Session) PreviewSummary() summaryDatamodel.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.Summarize(s.drafts)
}

// PreviewDaily breaks the draft batch down by day of month.
func (s *Session) PreviewDaily() []summaryDatamodel.DailyFlow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.DailyBreakdown(s.drafts)
}

// CategoryOptions lists the categories offered when editing a draft of the
// given transaction type.
func (s *Session) CategoryOptions(transactionType, current string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.OptionsFor(transactionType, current)
}

// ConfirmBatch validates the draft batch and hands it to the backend. On
// any failure the batch is kept untouched so the user can fix and retry;
// only a successful save clears it.
func (s *Session) ConfirmBatch(ctx context.Context) error {
	if err := s.begin(opConfirm); err != nil {
		return err
	}
	defer s.end(opConfirm)

	s.mu.RLock()
	batch := s.drafts.Clone()
	s.mu.RUnlock()

	if err := batch.ValidateForConfirm(); err != nil {
		return err
	}

	if err := s.backend.Confirm(ctx, batch); err != nil {
		s.logger.Error("batch confirm rejected", "size", len(batch), "error", err)
		return err
	}

	s.mu.Lock()
	s.drafts = nil
	s.mu.Unlock()

	s.publish(ctx, SliceDrafts)
	s.bus.Publish(ctx, events.NewBatchConfirmed(len(batch)))
	s.logger.Info("batch confirmed", "size", len(batch))

	return s.refreshDerived(ctx)
}

// refreshDerived refetches everything a confirmed batch can have changed.
func (s *Session) refreshDerived(ctx context.Context) error {
	s.mu.RLock()
	month, year := s.month, s.year
	s.mu.RUnlock()

	var (
		monthly summaryDatamodel.Summary
		overall summaryDatamodel.OverallSavings
		years   []int
		errs    [3]error
		wg      sync.WaitGroup
	)

	wg.Add(3)
	go func() { defer wg.Done(); monthly, errs[0] = s.backend.MonthlySummary(ctx, month, year) }()
	go func() { defer wg.Done(); overall, errs[1] = s.backend.OverallSavings(ctx) }()
	go func() { defer wg.Done(); years, errs[2] = s.backend.AvailableYears(ctx) }()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.logger.Error("post-confirm refresh failed", "error", err)
			return err
		}
	}

	s.mu.Lock()
	s.monthly = monthly
	s.overall = overall
	s.years = years
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceMonthly, SliceOverall, SliceYears, SliceAlerts)
	return nil
}

// Budgets returns a copy of all budgets, unscoped.
func (s *Session) Budgets() []budgetDatamodel.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]budgetDatamodel.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out
}

// Alerts returns the alert list for the selected period.
func (s *Session) Alerts() []budgetDatamodel.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]budgetDatamodel.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func (s *Session) Monthly() summaryDatamodel.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monthly
}

func (s *Session) Overall() summaryDatamodel.OverallSavings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overall
}

func (s *Session) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

func (s *Session) Catalog() taxonomy.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Clone()
}

// AddBudget validates and creates a budget. The ID is assigned here so the
// client can delete the budget later without a refetch round trip. A second
// budget for the same category and period is rejected locally.
func (s *Session) AddBudget(ctx context.Context, b budgetDatamodel.Budget) (string, error) {
	if err := s.begin(opBudget); err != nil {
		return "", err
	}
	defer s.end(opBudget)

	if b.Threshold == 0 {
		b.Threshold = budgetDatamodel.DefaultThreshold
	}

	validator := validation.NewValidator()
	validator.Field("category", b.Category).Required()
	validator.Field("amount", b.Amount).Positive(errors.ErrCodeInvalidAmount)
	validator.Field("threshold", b.Threshold).Fraction(errors.ErrCodeInvalidThreshold)
	if err := validator.Validate(); err != nil {
		return "", err
	}

	s.mu.RLock()
	for _, existing := range s.budgets {
		if existing.Category == b.Category && samePeriod(existing, b) {
			s.mu.RUnlock()
			return "", errors.ErrDuplicateBudget
		}
	}
	s.mu.RUnlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	if err := s.backend.CreateBudget(ctx, b); err != nil {
		return "", err
	}

	// Re-read the server's post-mutation state; the local cache is not
	// authoritative after a write.
	budgets, err := s.backend.Budgets(ctx)

	s.mu.Lock()
	if err != nil {
		s.logger.Warn("budget refetch failed, applying local update", "error", err)
		s.budgets = append(s.budgets, b)
	} else {
		s.budgets = budgets
	}
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceBudgets, SliceAlerts)
	s.logger.Info("budget added", "id", b.ID, "category", b.Category)
	return b.ID, nil
}

// DeleteBudget removes a budget by ID.
func (s *Session) DeleteBudget(ctx context.Context, id string) error {
	if err := s.begin(opBudget); err != nil {
		return err
	}
	defer s.end(opBudget)

	s.mu.RLock()
	idx := -1
	for i, b := range s.budgets {
		if b.ID == id {
			idx = i
			break
		}
	}
	s.mu.RUnlock()
	if idx < 0 {
		return errors.ErrBudgetNotFound
	}

	if err := s.backend.DeleteBudget(ctx, id); err != nil {
		return err
	}

	budgets, err := s.backend.Budgets(ctx)

	s.mu.Lock()
	if err != nil {
		s.logger.Warn("budget refetch failed, applying local update", "error", err)
		s.budgets = append(s.budgets[:idx:idx], s.budgets[idx+1:]...)
	} else {
		s.budgets = budgets
	}
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceBudgets, SliceAlerts)
	s.logger.Info("budget deleted", "id", id)
	return nil
}

// AddCategory adds a value to one taxonomy set and saves the whole catalog.
// The cached catalog only changes after the backend accepted the save.
func (s *Session) AddCategory(ctx context.Context, set, value string) error {
	return s.mutateCatalog(ctx, func(c *taxonomy.Catalog) error {
		return c.Add(set, value)
	})
}

// RemoveCategory removes a value from one taxonomy set.
func (s *Session) RemoveCategory(ctx context.Context, set, value string) error {
	return s.mutateCatalog(ctx, func(c *taxonomy.Catalog) error {
		return c.Remove(set, value)
	})
}

func (s *Session) mutateCatalog(ctx context.Context, mutate func(*taxonomy.Catalog) error) error {
	if err := s.begin(opCategories); err != nil {
		return err
	}
	defer s.end(opCategories)

	s.mu.RLock()
	next := s.catalog.Clone()
	s.mu.RUnlock()

	if err := mutate(&next); err != nil {
		return err
	}

	if err := s.backend.SaveCategories(ctx, next); err != nil {
		return err
	}

	catalog, err := s.backend.Categories(ctx)
	if err != nil {
		s.logger.Warn("category refetch failed, applying local update", "error", err)
		catalog = next
	}

	s.mu.Lock()
	s.catalog = catalog
	s.recomputeAlertsLocked()
	s.mu.Unlock()

	s.publish(ctx, SliceCategories, SliceAlerts)
	return nil
}

func (s *Session) publish(ctx context.Context, slices ...string) {
	for _, slice := range slices {
		s.bus.Publish(ctx, events.NewSliceUpdated(slice))
	}
}

func samePeriod(a, b budgetDatamodel.Budget) bool {
	return intPtrEqual(a.Month, b.Month) && intPtrEqual(a.Year, b.Year)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
