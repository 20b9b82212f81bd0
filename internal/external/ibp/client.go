// Package ibp talks to SAP IBP (Integrated Business Planning) master data OData services.
package ibp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/httputil"
	"github.com/wonny/mdhealth/pkg/logger"
)

const (
	// TokenTTL is how long a CSRF token is reused (SAP tokens last 24h)
	TokenTTL = 23 * time.Hour

	authTimeout = 30 * time.Second
	csrfHeader  = "x-csrf-token"
)

// Client handles communication with SAP IBP
// ⭐ SSOT: SAP IBP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.IBPConfig
	now        func() time.Time

	// CSRF token management
	token       string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// NewClient creates a new IBP client.
// httpClient is dedicated to IBP: it is configured with the SAP basic credentials.
func NewClient(cfg config.IBPConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("ibp"),
		cfg:        cfg,
		now:        time.Now,
	}
	httpClient.WithBasicAuth(c.username(), cfg.Password)
	return c
}

// username is the SAP logon name, user@client
func (c *Client) username() string {
	if c.cfg.Client == "" {
		return c.cfg.Username
	}
	return c.cfg.Username + "@" + c.cfg.Client
}

// getToken returns a cached CSRF token, fetching a new one when expired
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		token := c.token
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.URL+authPath, "fetch")
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Op: "authenticate", Code: resp.StatusCode, Summary: summarize(resp.Header.Get("Content-Type"), resp.Body)}
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, statusErr)
	}

	token := resp.Header.Get(csrfHeader)
	if token == "" {
		return "", fmt.Errorf("%w: no CSRF token in response headers", ErrAuthFailed)
	}

	c.token = token
	c.tokenExpiry = c.now().Add(TokenTTL)
	c.logger.Info("IBP CSRF token refreshed")

	return token, nil
}

// invalidateToken forgets the cached token so the next call re-authenticates
func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, url, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(csrfHeader, token)
	return req, nil
}

// TestConnection authenticates once and reports the failure, if any
func (c *Client) TestConnection(ctx context.Context) error {
	c.invalidateToken()
	if _, err := c.getToken(ctx); err != nil {
		c.logger.WithError(err).Error("IBP connection test failed")
		return err
	}
	return nil
}

// FetchMasterData loads every entity of a dataset type.
// An empty result set yields an empty table, not an error.
func (c *Client) FetchMasterData(ctx context.Context, dataType string) (*contracts.Table, error) {
	endpoint, err := Endpoint(dataType)
	if err != nil {
		return nil, err
	}
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.URL+endpoint, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", dataType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusForbidden {
			c.invalidateToken()
		}
		return nil, &StatusError{
			Op:      "fetch " + dataType,
			Code:    resp.StatusCode,
			Summary: summarize(resp.Header.Get("Content-Type"), resp.Body),
		}
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", dataType, err)
	}
	if len(records) == 0 {
		c.logger.WithDataset(dataType).Warn("No data found")
		return &contracts.Table{}, nil
	}

	table := contracts.FromRecords(records)
	c.logger.WithDataset(dataType).WithFields(map[string]interface{}{
		"rows":    table.NumRows(),
		"columns": len(table.Columns),
	}).Info("IBP master data fetched")

	return table, nil
}

// SubmitCorrection patches one record with the given field values.
// Values are sent as-is; IBP applies its own validation.
func (c *Client) SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error {
	path, err := RecordEndpoint(dataType, recordID)
	if err != nil {
		return err
	}
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.PatchJSON(ctx, c.cfg.URL+path, fields, map[string]string{
		"Accept":   "application/json",
		csrfHeader: token,
	})
	if err != nil {
		return fmt.Errorf("correct %s %s: %w", dataType, recordID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return &StatusError{
			Op:      fmt.Sprintf("correct %s %s", dataType, recordID),
			Code:    resp.StatusCode,
			Summary: summarize(resp.Header.Get("Content-Type"), resp.Body),
		}
	}

	c.logger.WithDataset(dataType).WithField("record_id", recordID).Info("Successfully updated record")
	return nil
}
