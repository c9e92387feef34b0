package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lead-reconciliation/internal/domain"
)

// crmLocation is the zone naive CRM timestamps are read in.
var crmLocation = time.FixedZone("ICT", 7*60*60)

// CRMConfig configures the CRM REST client.
type CRMConfig struct {
	WebhookURL  string
	CategoryID  string
	PageSize    int
	MaxParallel int
	Timeout     time.Duration
	MaxRetries  uint64
	// RetryInterval is the first backoff delay; it grows exponentially.
	RetryInterval time.Duration
}

// CRMClient implements the LeadRepository interface against a Bitrix-style
// webhook.
type CRMClient struct {
	cfg        CRMConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCRMClient creates a new CRM client. Zero values in cfg fall back to
// 50 records per page and 20 parallel requests.
func NewCRMClient(cfg CRMConfig, logger *zap.Logger) *CRMClient {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	cfg.WebhookURL = strings.TrimRight(cfg.WebhookURL, "/")
	return &CRMClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("crm"),
	}
}

type listResponse struct {
	Result []rawLead `json:"result"`
	Next   *int      `json:"next"`
	Total  int       `json:"total"`
}

type updateResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// FetchLeads downloads every active lead of the configured category. The first
// page tells how many records exist; the remaining pages are fetched in
// parallel. A page that keeps failing is logged and skipped.
func (c *CRMClient) FetchLeads(ctx context.Context) ([]domain.LeadRecord, error) {
	first, err := c.fetchPage(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("could not fetch first page: %w", err)
	}

	pageCount := 1
	if first.Total > c.cfg.PageSize {
		pageCount = (first.Total + c.cfg.PageSize - 1) / c.cfg.PageSize
	}
	pages := make([][]rawLead, pageCount)
	pages[0] = first.Result

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxParallel)
	for p := 1; p < pageCount; p++ {
		g.Go(func() error {
			start := p * c.cfg.PageSize
			resp, err := c.fetchPage(gCtx, start)
			if err != nil {
				c.logger.Warn("skipping page", zap.Int("start", start), zap.Error(err))
				return nil
			}
			pages[p] = resp.Result
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	leads := make([]domain.LeadRecord, 0, first.Total)
	for _, page := range pages {
		for _, raw := range page {
			leads = append(leads, raw.toLead())
		}
	}
	c.logger.Info("leads fetched", zap.Int("total", first.Total), zap.Int("received", len(leads)), zap.Int("pages", pageCount))
	return leads, nil
}

func (c *CRMClient) fetchPage(ctx context.Context, start int) (*listResponse, error) {
	q := url.Values{}
	if c.cfg.CategoryID != "" {
		q.Set("filter[CATEGORY_ID]", c.cfg.CategoryID)
	}
	q.Set("filter["+DisabledField+"]", "N")
	for _, f := range selectFields {
		q.Add("select[]", f)
	}
	q.Set("start", strconv.Itoa(start))
	endpoint := c.cfg.WebhookURL + "/crm.deal.list.json?" + q.Encode()

	var out listResponse
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		return c.do(req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableLead marks a lead as disabled in the CRM.
func (c *CRMClient) DisableLead(ctx context.Context, id string) error {
	body, err := json.Marshal(map[string]any{
		"id":     id,
		"fields": map[string]string{DisabledField: "Y"},
	})
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	var out updateResponse
	err = c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL+"/crm.deal.update.json", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, &out)
	})
	if err != nil {
		return err
	}
	if out.Error != "" {
		msg := out.ErrorDescription
		if msg == "" {
			msg = out.Error
		}
		return fmt.Errorf("crm rejected update of %s: %s", id, msg)
	}
	return nil
}

// do sends req and decodes a 2xx JSON body into out. 4xx responses other than
// 408 and 429 are permanent.
func (c *CRMClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := fmt.Errorf("crm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
		if resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *CRMClient) retry(ctx context.Context, op backoff.Operation) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.cfg.MaxRetries), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.logger.Debug("retrying crm call", zap.Duration("wait", wait), zap.Error(err))
	})
}
