package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/AbrarAhmad001/antigravity-budget/internal"
	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
	"github.com/AbrarAhmad001/antigravity-budget/internal/taxonomy"
)

// Client talks to the extraction/persistence backend that owns the /api
// surface. It only ever consumes those endpoints; all reconciliation and
// status logic stays on this side of the wire.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

func NewClient(config Config, logger *slog.Logger) *Client {
	requestTimeout := config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	uploadTimeout := config.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 4 * requestTimeout
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
		httpClient:     &http.Client{},
		logger:         logger,
	}
}

// ProcessText sends free text to the extraction backend and returns the
// candidate transactions. An empty result is not an error; the caller
// decides how to surface "nothing extracted".
func (c *Client) ProcessText(ctx context.Context, text string) ([]transaction.Raw, error) {
	form := url.Values{}
	form.Set("text", text)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process/text", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload extractionResponse
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}

	c.logger.Info("text processed", "extracted", len(payload.Extracted))
	return payload.Extracted, nil
}

// ProcessImage uploads a receipt image for extraction. Uploads get the
// longer timeout since the backend runs vision models on them.
func (c *Client) ProcessImage(ctx context.Context, filename string, content io.Reader) ([]transaction.Raw, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read image content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process/image", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var payload extractionResponse
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}

	c.logger.Info("image processed", "filename", filename, "extracted", len(payload.Extracted))
	return payload.Extracted, nil
}

// Confirm persists a reconciled batch. The backend applies the whole batch
// atomically; on any failure the caller keeps the draft for retry.
func (c *Client) Confirm(ctx context.Context, batch []transaction.Transaction) error {
	return c.postJSON(ctx, "/api/confirm", batch, nil)
}

func (c *Client) Categories(ctx context.Context) (taxonomy.Catalog, error) {
	var catalog taxonomy.Catalog
	err := c.getJSON(ctx, "/api/categories", &catalog)
	return catalog, err
}

// SaveCategories replaces all four taxonomy sets wholesale; the backend has
// no partial update.
func (c *Client) SaveCategories(ctx context.Context, catalog taxonomy.Catalog) error {
	return c.postJSON(ctx, "/api/categories", catalog, nil)
}

func (c *Client) Budgets(ctx context.Context) ([]budgetDatamodel.Budget, error) {
	var budgets []budgetDatamodel.Budget
	err := c.getJSON(ctx, "/api/budgets", &budgets)
	return budgets, err
}

func (c *Client) CreateBudget(ctx context.Context, b budgetDatamodel.Budget) error {
	return c.postJSON(ctx, "/api/budgets", b, nil)
}

func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/budgets/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) Alerts(ctx context.Context, month, year int) ([]budgetDatamodel.Alert, error) {
	var alerts []budgetDatamodel.Alert
	err := c.getJSON(ctx, "/api/alerts?"+periodQuery(month, year), &alerts)
	return alerts, err
}

func (c *Client) MonthlySummary(ctx context.Context, month, year int) (summaryDatamodel.Summary, error) {
	var sum summaryDatamodel.Summary
	err := c.getJSON(ctx, "/api/summary/monthly?"+periodQuery(month, year), &sum)
	return sum, err
}

func (c *Client) AvailableYears(ctx context.Context) ([]int, error) {
	var payload struct {
		Years []int `json:"years"`
	}
	if err := c.getJSON(ctx, "/api/summary/available-years", &payload); err != nil {
		return nil, err
	}
	return payload.Years, nil
}

func (c *Client) OverallSavings(ctx context.Context) (summaryDatamodel.OverallSavings, error) {
	var overall summaryDatamodel.OverallSavings
	err := c.getJSON(ctx, "/api/analytics/overall-savings", &overall)
	return overall, err
}

type extractionResponse struct {
	Text      string            `json:"text"`
	Extracted []transaction.Raw `json:"extracted"`
}

func periodQuery(month, year int) string {
	q := url.Values{}
	q.Set("month", strconv.Itoa(month))
	q.Set("year", strconv.Itoa(year))
	return q.Encode()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes the request and decodes a JSON response into out when out is
// non-nil. Transport failures and non-2xx statuses come back as external
// AppErrors so call sites can surface them inline without inspecting the
// wire.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return errors.NewExternalError("backend unreachable", errors.ErrCodeBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("backend rejected request",
			"method", req.Method,
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"body", string(body))
		return errors.NewExternalError(
			fmt.Sprintf("backend returned status %d", resp.StatusCode),
			errors.ErrCodeBackendRejected, nil)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalError("failed to decode backend response", errors.ErrCodeBackendRejected, err)
	}
	return nil
}
