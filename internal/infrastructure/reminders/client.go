// Package reminders implements the ReminderSource collaborator over the
// external reminder service's HTTP API.
package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/internal/config"
	"github.com/taskmirror/backend/usecase"
)

type Client struct {
	http    *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ usecase.ReminderSource = (*Client)(nil)

// NewClient builds a reminder-source client from configuration.
func NewClient(cfg config.RemindersConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) FetchOpenRecords(ctx context.Context) ([]domain.ExternalRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/records?status=open", nil)
	if err != nil {
		return nil, err
	}
	var records []domain.ExternalRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decoding external records", err)
	}
	return records, nil
}

func (c *Client) FetchCollections(ctx context.Context) ([]domain.Collection, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/collections", nil)
	if err != nil {
		return nil, err
	}
	var collections []domain.Collection
	if err := json.Unmarshal(body, &collections); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decoding collections", err)
	}
	return collections, nil
}

func (c *Client) MarkComplete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/records/"+id+"/complete", nil)
	return err
}

func (c *Client) CreateRecord(ctx context.Context, record *domain.ExternalRecord) (string, error) {
	if record == nil || record.Title == "" {
		return "", domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodPost, "/v1/records", payload)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "decoding create response", err)
	}
	return created.ID, nil
}

func (c *Client) UpdateRecord(ctx context.Context, record *domain.ExternalRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, "/v1/records/"+record.ID, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if len(payload) > 0 {
		req.SetBody(payload)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "reminder source unreachable", err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, domain.ErrNotAuthorized
	case status == http.StatusNotFound:
		return nil, domain.ErrRecordNotFound
	case status >= 400:
		c.logger.Warn("reminder source error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status))
		return nil, domain.NewError(domain.ErrCodeUnavailable, fmt.Sprintf("reminder source returned %d", status))
	}

	return append([]byte(nil), resp.Body()...), nil
}
