package session_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/events"
	"github.com/AbrarAhmad001/antigravity-budget/internal/session"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
)

// Mock backend for testing
type mockBackend struct {
	mu sync.Mutex

	catalog   taxonomy.Catalog
	budgets   []budgetDatamodel.Budget
	summaries map[[2]int]summaryDatamodel.Summary
	overall   summaryDatamodel.OverallSavings
	years     []int
	extracted []transaction.Raw

	// when set, ProcessText blocks until the channel closes
	blockProcess chan struct{}

	confirmed       [][]transaction.Transaction
	savedCatalogs   []taxonomy.Catalog
	createdBudgets  []budgetDatamodel.Budget
	deletedBudgets  []string
	summaryCalls    [][2]int
	processError    error
	confirmError    error
	saveError       error
	createError     error
	deleteError     error
	summaryError    error
	processTexts    []string
	processedImages []string
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		catalog: taxonomy.Catalog{
			Expense: []string{"Groceries"},
			Income:  []string{"Salary"},
			Savings: []string{"Emergency Fund"},
			Vaults:  []string{"Other"},
		},
		summaries: make(map[[2]int]summaryDatamodel.Summary),
		years:     []int{2026},
	}
}

func (m *mockBackend) ProcessText(ctx context.Context, text string) ([]transaction.Raw, error) {
	if m.blockProcess != nil {
		<-m.blockProcess
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processTexts = append(m.processTexts, text)
	if m.processError != nil {
		return nil, m.processError
	}
	return m.extracted, nil
}

func (m *mockBackend) ProcessImage(ctx context.Context, filename string, content io.Reader) ([]transaction.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processedImages = append(m.processedImages, filename)
	if m.processError != nil {
		return nil, m.processError
	}
	return m.extracted, nil
}

func (m *mockBackend) Confirm(ctx context.Context, batch []transaction.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmError != nil {
		return m.confirmError
	}
	m.confirmed = append(m.confirmed, batch)
	return nil
}

func (m *mockBackend) Categories(ctx context.Context) (taxonomy.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog, nil
}

func (m *mockBackend) SaveCategories(ctx context.Context, catalog taxonomy.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.savedCatalogs = append(m.savedCatalogs, catalog)
	m.catalog = catalog
	return nil
}

func (m *mockBackend) Budgets(ctx context.Context) ([]budgetDatamodel.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budgets, nil
}

func (m *mockBackend) CreateBudget(ctx context.Context, b budgetDatamodel.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.createdBudgets = append(m.createdBudgets, b)
	m.budgets = append(m.budgets, b)
	return nil
}

func (m *mockBackend) DeleteBudget(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return m.deleteError
	}
	m.deletedBudgets = append(m.deletedBudgets, id)
	kept := m.budgets[:0]
	for _, b := range m.budgets {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	m.budgets = kept
	return nil
}

func (m *mockBackend) MonthlySummary(ctx context.Context, month, year int) (summaryDatamodel.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls = append(m.summaryCalls, [2]int{month, year})
	if m.summaryError != nil {
		return summaryDatamodel.Summary{}, m.summaryError
	}
	return m.summaries[[2]int{month, year}], nil
}

func (m *mockBackend) AvailableYears(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.years, nil
}

func (m *mockBackend) OverallSavings(ctx context.Context) (summaryDatamodel.OverallSavings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overall, nil
}

func intPtr(v int) *int { return &v }

var _ = Describe("Session", func() {
	var (
		backend *mockBackend
		sess    *session.Session
		ctx     context.Context
	)

	BeforeEach(func() {
		backend = newMockBackend()
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		sess = session.NewSession(backend, events.NewEventBus(lg), lg)
		ctx = context.Background()
	})

	Describe("Load", func() {
		It("should populate every state slice", func() {
			backend.budgets = []budgetDatamodel.Budget{{ID: "b1", Category: "Groceries", Amount: 1000}}

			Expect(sess.Load(ctx)).To(Succeed())

			Expect(sess.Catalog().Expense).To(Equal([]string{"Groceries"}))
			Expect(sess.Budgets()).To(HaveLen(1))
			Expect(sess.Years()).To(Equal([]int{2026}))
		})

		It("should compute alerts for the selected period", func() {
			month, year := sess.Period()
			backend.budgets = []budgetDatamodel.Budget{
				{ID: "b1", Category: "Groceries", Amount: 1000, Month: intPtr(month), Year: intPtr(year)},
			}
			backend.summaries[[2]int{month, year}] = summaryDatamodel.Summary{
				ExpenseBreakdown: map[string]float64{"Groceries": 850},
			}

			Expect(sess.Load(ctx)).To(Succeed())

			alerts := sess.Alerts()
			Expect(alerts).To(HaveLen(1))
			Expect(alerts[0].Status).To(Equal(budgetDatamodel.StatusWarning))
		})
	})

	Describe("SetPeriod", func() {
		It("should refetch only the monthly summary and recompute alerts", func() {
			Expect(sess.Load(ctx)).To(Succeed())
			loadCalls := len(backend.summaryCalls)

			Expect(sess.SetPeriod(ctx, 3, 2025)).To(Succeed())

			month, year := sess.Period()
			Expect(month).To(Equal(3))
			Expect(year).To(Equal(2025))
			Expect(backend.summaryCalls).To(HaveLen(loadCalls + 1))
			Expect(backend.summaryCalls[loadCalls]).To(Equal([2]int{3, 2025}))
		})

		It("should reject an invalid month", func() {
			err := sess.SetPeriod(ctx, 13, 2025)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidPeriod))
		})

		It("should keep the old period when the refetch fails", func() {
			origMonth, origYear := sess.Period()
			backend.summaryError = errors.NewExternalError("down", errors.ErrCodeBackendUnreachable, nil)

			Expect(sess.SetPeriod(ctx, 3, 2025)).ToNot(Succeed())

			month, year := sess.Period()
			Expect(month).To(Equal(origMonth))
			Expect(year).To(Equal(origYear))
		})
	})

	Describe("CaptureText", func() {
		It("should append normalized drafts", func() {
			backend.extracted = []transaction.Raw{
				{Date: "2026-08-15", Amount: "'1250.50", Type: "Expense", Category: "Groceries"},
			}

			added, err := sess.CaptureText(ctx, "groceries 1250.50")

			Expect(err).ToNot(HaveOccurred())
			Expect(added).To(Equal(1))
			drafts := sess.Drafts()
			Expect(drafts).To(HaveLen(1))
			Expect(drafts[0].Amount).To(Equal(1250.50))
			Expect(drafts[0].TransactionType).To(Equal(transaction.TypeExpense))
		})

		It("should report an empty extraction as an error", func() {
			backend.extracted = nil

			_, err := sess.CaptureText(ctx, "lorem ipsum")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeNothingExtracted))
			Expect(sess.Drafts()).To(BeEmpty())
		})

		It("should reject a second capture while one is in flight", func() {
			backend.extracted = []transaction.Raw{{Date: "2026-08-15", Amount: 10, Category: "Groceries"}}
			backend.blockProcess = make(chan struct{})

			firstDone := make(chan error, 1)
			go func() {
				_, err := sess.CaptureText(ctx, "first")
				firstDone <- err
			}()

			Eventually(sess.Busy).WithArguments("capture").Should(BeTrue())

			_, err := sess.CaptureText(ctx, "second")
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeOperationInFlight))

			close(backend.blockProcess)
			Expect(<-firstDone).ToNot(HaveOccurred())
		})

		It("should keep earlier drafts when capturing again", func() {
			backend.extracted = []transaction.Raw{{Date: "2026-08-15", Amount: 10, Category: "Groceries"}}
			_, err := sess.CaptureText(ctx, "first")
			Expect(err).ToNot(HaveOccurred())

			backend.extracted = []transaction.Raw{{Date: "2026-08-16", Amount: 20, Category: "Transport"}}
			_, err = sess.CaptureText(ctx, "second")
			Expect(err).ToNot(HaveOccurred())

			Expect(sess.Drafts()).To(HaveLen(2))
		})
	})

	Describe("ConfirmBatch", func() {
		BeforeEach(func() {
			backend.extracted = []transaction.Raw{
				{Date: "2026-08-15", Amount: 100, Category: "Groceries", TransactionType: "expense"},
			}
			_, err := sess.CaptureText(ctx, "groceries 100")
			Expect(err).ToNot(HaveOccurred())
		})

		It("should send the batch and clear the drafts", func() {
			Expect(sess.ConfirmBatch(ctx)).To(Succeed())

			Expect(backend.confirmed).To(HaveLen(1))
			Expect(backend.confirmed[0]).To(HaveLen(1))
			Expect(sess.Drafts()).To(BeEmpty())
		})

		It("should keep the drafts when validation fails", func() {
			Expect(sess.UpdateDraft(ctx, 0, "date", "")).To(Succeed())

			Expect(sess.ConfirmBatch(ctx)).ToNot(Succeed())

			Expect(backend.confirmed).To(BeEmpty())
			Expect(sess.Drafts()).To(HaveLen(1))
		})

		It("should keep the drafts when the backend rejects the batch", func() {
			backend.confirmError = errors.NewExternalError("rejected", errors.ErrCodeBackendRejected, nil)

			Expect(sess.ConfirmBatch(ctx)).ToNot(Succeed())

			Expect(sess.Drafts()).To(HaveLen(1))
		})

		It("should refetch the derived slices after a successful confirm", func() {
			before := len(backend.summaryCalls)

			Expect(sess.ConfirmBatch(ctx)).To(Succeed())

			Expect(len(backend.summaryCalls)).To(Equal(before + 1))
		})

		It("should reject an empty batch", func() {
			Expect(sess.DeleteDraft(ctx, 0)).To(Succeed())

			err := sess.ConfirmBatch(ctx)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeBatchEmpty))
		})
	})

	Describe("AddBudget", func() {
		It("should assign an id and create the budget", func() {
			id, err := sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 1000, Month: intPtr(8), Year: intPtr(2026),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(id).ToNot(BeEmpty())
			Expect(backend.createdBudgets).To(HaveLen(1))
			Expect(backend.createdBudgets[0].ID).To(Equal(id))
			Expect(backend.createdBudgets[0].Threshold).To(Equal(budgetDatamodel.DefaultThreshold))
			Expect(sess.Budgets()).To(HaveLen(1))
		})

		It("should reject a duplicate category and period", func() {
			_, err := sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 1000, Month: intPtr(8), Year: intPtr(2026),
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 500, Month: intPtr(8), Year: intPtr(2026),
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeDuplicateBudget))
			Expect(backend.createdBudgets).To(HaveLen(1))
		})

		It("should allow the same category in a different period", func() {
			_, err := sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 1000, Month: intPtr(8), Year: intPtr(2026),
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 1000, Month: intPtr(9), Year: intPtr(2026),
			})

			Expect(err).ToNot(HaveOccurred())
		})

		It("should reject a non-positive amount", func() {
			_, err := sess.AddBudget(ctx, budgetDatamodel.Budget{Category: "Groceries", Amount: 0})

			Expect(err).To(HaveOccurred())
			Expect(backend.createdBudgets).To(BeEmpty())
		})
	})

	Describe("DeleteBudget", func() {
		It("should delete a known budget", func() {
			id, err := sess.AddBudget(ctx, budgetDatamodel.Budget{
				Category: "Groceries", Amount: 1000, Month: intPtr(8), Year: intPtr(2026),
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(sess.DeleteBudget(ctx, id)).To(Succeed())

			Expect(backend.deletedBudgets).To(Equal([]string{id}))
			Expect(sess.Budgets()).To(BeEmpty())
		})

		It("should reject an unknown id without calling the backend", func() {
			err := sess.DeleteBudget(ctx, "nope")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeBudgetNotFound))
			Expect(backend.deletedBudgets).To(BeEmpty())
		})
	})

	Describe("category mutations", func() {
		BeforeEach(func() {
			Expect(sess.Load(ctx)).To(Succeed())
		})

		It("should save and cache an added category", func() {
			Expect(sess.AddCategory(ctx, taxonomy.SetExpense, "Dining")).To(Succeed())

			Expect(backend.savedCatalogs).To(HaveLen(1))
			Expect(sess.Catalog().Expense).To(Equal([]string{"Groceries", "Dining"}))
		})

		It("should keep the cached catalog when the save fails", func() {
			backend.saveError = errors.NewExternalError("down", errors.ErrCodeBackendUnreachable, nil)

			Expect(sess.AddCategory(ctx, taxonomy.SetExpense, "Dining")).ToNot(Succeed())

			Expect(sess.Catalog().Expense).To(Equal([]string{"Groceries"}))
		})

		It("should remove a category", func() {
			Expect(sess.RemoveCategory(ctx, taxonomy.SetSavings, "Emergency Fund")).To(Succeed())

			Expect(sess.Catalog().Savings).To(BeEmpty())
		})
	})

	Describe("PreviewSummary", func() {
		It("should aggregate the draft batch", func() {
			backend.extracted = []transaction.Raw{
				{Date: "2026-08-15", Amount: 100, Category: "Groceries", TransactionType: "expense"},
				{Date: "2026-08-15", Amount: 500, Category: "Salary", TransactionType: "income"},
			}
			_, err := sess.CaptureText(ctx, "payday and groceries")
			Expect(err).ToNot(HaveOccurred())

			sum := sess.PreviewSummary()

			Expect(sum.TotalIncome).To(Equal(500.0))
			Expect(sum.TotalExpense).To(Equal(100.0))
			Expect(sum.NetBalance).To(Equal(400.0))
		})
	})
})
