package backendapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	"github.com/AbrarAhmad001/antigravity-budget/internal/backendapi"
	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
)

func newTestClient(handler http.Handler) (*backendapi.Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := backendapi.NewClient(backendapi.Config{
		BaseURL:        server.URL,
		RequestTimeout: 2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return client, server
}

var _ = Describe("Client", func() {
	Describe("ProcessText", func() {
		It("should post the text as a form and decode the extraction", func() {
			var gotText, gotContentType string
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/process/text"))
				gotContentType = r.Header.Get("Content-Type")
				Expect(r.ParseForm()).To(Succeed())
				gotText = r.PostFormValue("text")
				json.NewEncoder(w).Encode(map[string]any{
					"text": gotText,
					"extracted": []map[string]any{
						{"date": "2026-08-15", "amount": "1250.50", "category": "Groceries", "transaction_type": "expense"},
					},
				})
			}))
			defer server.Close()

			raws, err := client.ProcessText(context.Background(), "spent 1250.50 on groceries")

			Expect(err).ToNot(HaveOccurred())
			Expect(gotText).To(Equal("spent 1250.50 on groceries"))
			Expect(gotContentType).To(Equal("application/x-www-form-urlencoded"))
			Expect(raws).To(HaveLen(1))
			Expect(raws[0].Category).To(Equal("Groceries"))
		})

		It("should pass an empty extraction through", func() {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"extracted": []any{}})
			}))
			defer server.Close()

			raws, err := client.ProcessText(context.Background(), "lorem ipsum")

			Expect(err).ToNot(HaveOccurred())
			Expect(raws).To(BeEmpty())
		})
	})

	Describe("ProcessImage", func() {
		It("should upload the file as multipart", func() {
			var gotFilename, gotContent string
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/process/image"))
				file, header, err := r.FormFile("file")
				Expect(err).ToNot(HaveOccurred())
				defer file.Close()
				gotFilename = header.Filename
				content, _ := io.ReadAll(file)
				gotContent = string(content)
				json.NewEncoder(w).Encode(map[string]any{"extracted": []any{}})
			}))
			defer server.Close()

			_, err := client.ProcessImage(context.Background(), "receipt.jpg", strings.NewReader("fake-jpeg-bytes"))

			Expect(err).ToNot(HaveOccurred())
			Expect(gotFilename).To(Equal("receipt.jpg"))
			Expect(gotContent).To(Equal("fake-jpeg-bytes"))
		})
	})

	Describe("Confirm", func() {
		It("should post the batch as JSON", func() {
			var got []transaction.Transaction
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/confirm"))
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			batch := []transaction.Transaction{{Date: "2026-08-15", Amount: 10, Category: "Groceries", TransactionType: "expense"}}
			Expect(client.Confirm(context.Background(), batch)).To(Succeed())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Category).To(Equal("Groceries"))
		})
	})

	Describe("Categories", func() {
		It("should decode the catalog", func() {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(taxonomy.Catalog{
					Expense: []string{"Groceries"},
					Savings: []string{"Emergency Fund"},
				})
			}))
			defer server.Close()

			catalog, err := client.Categories(context.Background())

			Expect(err).ToNot(HaveOccurred())
			Expect(catalog.Expense).To(Equal([]string{"Groceries"}))
			Expect(catalog.Savings).To(Equal([]string{"Emergency Fund"}))
		})
	})

	Describe("DeleteBudget", func() {
		It("should issue a DELETE with the escaped id", func() {
			var gotPath string
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodDelete))
				gotPath = r.URL.Path
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			Expect(client.DeleteBudget(context.Background(), "b-123")).To(Succeed())
			Expect(gotPath).To(Equal("/api/budgets/b-123"))
		})
	})

	Describe("Alerts", func() {
		It("should send the period as query parameters", func() {
			var gotQuery map[string][]string
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query()
				json.NewEncoder(w).Encode([]budgetDatamodel.Alert{{Category: "Groceries", Status: budgetDatamodel.StatusWarning}})
			}))
			defer server.Close()

			alerts, err := client.Alerts(context.Background(), 8, 2026)

			Expect(err).ToNot(HaveOccurred())
			Expect(gotQuery["month"]).To(Equal([]string{"8"}))
			Expect(gotQuery["year"]).To(Equal([]string{"2026"}))
			Expect(alerts).To(HaveLen(1))
		})
	})

	Describe("AvailableYears", func() {
		It("should unwrap the years envelope", func() {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string][]int{"years": {2024, 2025, 2026}})
			}))
			defer server.Close()

			years, err := client.AvailableYears(context.Background())

			Expect(err).ToNot(HaveOccurred())
			Expect(years).To(Equal([]int{2024, 2025, 2026}))
		})
	})

	Context("when the backend rejects the request", func() {
		It("should return an external error carrying the status", func() {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			}))
			defer server.Close()

			_, err := client.Budgets(context.Background())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeBackendRejected))
			Expect(appErr.Type).To(Equal(errors.ErrorTypeExternal))
		})
	})

	Context("when the backend is unreachable", func() {
		It("should return an external error", func() {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			server.Close()

			_, err := client.Budgets(context.Background())

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeBackendUnreachable))
		})
	})
})
