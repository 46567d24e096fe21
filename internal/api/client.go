package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roomboard/internal/logging"
	"roomboard/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second

	requestIDHeader = "X-Request-Id"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RetryCount applies to GET /rooms only; mutations are never retried.
	RetryCount int
	RetryWait  time.Duration
	Logger     *zap.Logger
	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client talks to the rooms API.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  *zap.Logger
}

func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 250 * time.Millisecond
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(4*wait).
		AddRetryCondition(retryReads).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(requestIDHeader) == "" {
			r.SetHeader(requestIDHeader, uuid.NewString())
		}
		return nil
	})

	return &Client{http: rc, baseURL: base, logger: logging.OrNop(opts.Logger)}
}

func (c *Client) BaseURL() string { return c.baseURL }

func retryReads(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return r.StatusCode() >= http.StatusInternalServerError
}

// Rooms fetches the full room list (GET /rooms).
func (c *Client) Rooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return rooms, nil
}

type textPatch struct {
	Text string `json:"text"`
}

type positionPatch struct {
	Position model.Position `json:"position"`
}

func (c *Client) UpdateCardText(ctx context.Context, roomID int, cardID model.CardID, text string) error {
	return c.do(ctx, http.MethodPatch, cardPath(roomID, cardID), textPatch{Text: text}, nil)
}

func (c *Client) UpdateCardPosition(ctx context.Context, roomID int, cardID model.CardID, pos model.Position) error {
	return c.do(ctx, http.MethodPatch, cardPath(roomID, cardID), positionPatch{Position: pos}, nil)
}

func (c *Client) DeleteCard(ctx context.Context, roomID int, cardID model.CardID) error {
	return c.do(ctx, http.MethodDelete, cardPath(roomID, cardID), nil, nil)
}

// AddCard asks the server to create a card; the server assigns the id and defaults.
func (c *Client) AddCard(ctx context.Context, roomID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/cards", roomID), nil, nil)
}

// UpdateOrder replaces the room's order with order.
func (c *Client) UpdateOrder(ctx context.Context, roomID int, order []model.CardID) error {
	if order == nil {
		order = []model.CardID{}
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/rooms/%d/order", roomID), order, nil)
}

func cardPath(roomID int, cardID model.CardID) string {
	return fmt.Sprintf("/rooms/%d/cards/%d", roomID, cardID)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result).ForceContentType("application/json")
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.logger.Warn("api request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("elapsed", elapsed),
		)
		return &NetworkError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode()),
		}
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", resp.Request.Header.Get(requestIDHeader)),
	)
	return nil
}
