package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/types"
)

var defaultHTTPClient = &http.Client{Timeout: 12 * time.Second}

// StatusError is returned for any response other than 200 and 204.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cendeu: status %d: %s", e.Code, e.Body)
}

type debtsResponse struct {
	Debts []types.RawDebt `json:"debts"`
}

// Client fetches debt lines from the CENDEU bureau API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxElapsed time.Duration
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: defaultHTTPClient,
		maxElapsed: 12 * time.Second,
	}
}

// NewFromEnv builds a client from API_CENDEU_URL and API_CENDEU_TOKEN.
func NewFromEnv() (*Client, error) {
	host := os.Getenv("API_CENDEU_URL")
	if host == "" {
		return nil, errors.New("API_CENDEU_URL not set")
	}
	return NewClient(host, os.Getenv("API_CENDEU_TOKEN")), nil
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithMaxElapsed bounds the total retry time.
func (c *Client) WithMaxElapsed(d time.Duration) *Client {
	c.maxElapsed = d
	return c
}

// FetchDebts returns the raw debt lines reported for cuit. A 204 or an empty
// list means the bureau has no history for the client and is not an error.
// Transport failures and 5xx responses are retried with exponential backoff.
func (c *Client) FetchDebts(ctx context.Context, cuit string) ([]types.RawDebt, error) {
	log := logger.New().WithField("module", "bureau").WithField("cuit", cuit)
	endpoint := fmt.Sprintf("%s/api/cuit/%s?%s", c.baseURL, url.PathEscape(cuit), url.Values{"api_token": {c.token}}.Encode())

	var out debtsResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warn("bureau request failed")
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusNoContent:
			out = debtsResponse{}
			return nil
		case resp.StatusCode >= 500:
			log.WithField("status", resp.StatusCode).Warn("bureau server error")
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: string(body)})
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode debts: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	log.WithField("debts", len(out.Debts)).Debug("bureau lookup complete")
	return out.Debts, nil
}
