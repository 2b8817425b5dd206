// Package sharepoint stores documents in a SharePoint document library
// through the Microsoft Graph drive API.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ruitoque/fronteras/internal/inventory"
)

const (
	DefaultBaseURL           = "https://graph.microsoft.com/v1.0"
	DefaultRequestsPerSecond = 5
	requestTimeout           = 60 * time.Second
)

type Config struct {
	BaseURL string

	// Host is the tenant SharePoint host, e.g. contoso.sharepoint.com.
	Host string

	// Site is the site path below /sites/.
	Site string

	RequestsPerSecond float64
}

// Client implements inventory.Store against the default drive of a site.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *logrus.Entry

	mu      sync.Mutex
	siteID  string
	driveID string
}

var (
	_ inventory.Store  = (*Client)(nil)
	_ inventory.Pinger = (*Client)(nil)
)

// New builds a client. httpClient must attach the bearer token, see
// NewHTTPClient.
func New(cfg Config, httpClient *http.Client, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 10),
		logger:  logger.WithFields(logrus.Fields{"component": "sharepoint", "site": cfg.Site}),
	}
}

type graphID struct {
	ID string `json:"id"`
}

type driveItem struct {
	Name         string          `json:"name"`
	Size         int64           `json:"size"`
	LastModified time.Time       `json:"lastModifiedDateTime"`
	File         json.RawMessage `json:"file"`
}

type childrenPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// statusError is a non-success Graph response.
type statusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("graph %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Ping resolves the site and its drive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.drive(ctx)
	return err
}

func (c *Client) List(ctx context.Context, folder string) ([]inventory.Item, error) {
	drive, err := c.drive(ctx)
	if err != nil {
		return nil, err
	}
	next := fmt.Sprintf("%s/drives/%s/root:/%s:/children", c.cfg.BaseURL, drive, escapePath(folder))

	items := make([]inventory.Item, 0)
	for next != "" {
		var page childrenPage
		err := c.getJSON(ctx, next, &page)
		if isStatus(err, http.StatusNotFound) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		for _, it := range page.Value {
			if len(it.File) == 0 {
				continue
			}
			items = append(items, inventory.Item{Name: it.Name, Size: it.Size, Modified: it.LastModified})
		}
		next = page.NextLink
	}
	c.logger.WithFields(logrus.Fields{"folder": folder, "files": len(items)}).Debug("listed")
	return items, nil
}

func (c *Client) Download(ctx context.Context, folder, name string) ([]byte, error) {
	u, err := c.itemURL(ctx, folder, name, "/content")
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodGet, u, nil, "")
	if isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("download %s/%s: %w", folder, name, inventory.ErrNotFound)
	}
	return data, err
}

// Upload replaces the document. Missing folders are created by Graph.
func (c *Client) Upload(ctx context.Context, folder, name string, data []byte) error {
	u, err := c.itemURL(ctx, folder, name, "/content")
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, u, data, "application/octet-stream"); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"folder": folder, "file": name, "bytes": len(data)}).Info("uploaded")
	return nil
}

func (c *Client) Delete(ctx context.Context, folder, name string) error {
	u, err := c.itemURL(ctx, folder, name, "")
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, u, nil, "")
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("delete %s/%s: %w", folder, name, inventory.ErrNotFound)
	}
	return err
}

func (c *Client) itemURL(ctx context.Context, folder, name, suffix string) (string, error) {
	drive, err := c.drive(ctx)
	if err != nil {
		return "", err
	}
	p := escapePath(strings.TrimSuffix(folder, "/") + "/" + name)
	if suffix == "" {
		return fmt.Sprintf("%s/drives/%s/root:/%s", c.cfg.BaseURL, drive, p), nil
	}
	return fmt.Sprintf("%s/drives/%s/root:/%s:%s", c.cfg.BaseURL, drive, p, suffix), nil
}

// drive resolves and caches the site and drive identifiers.
func (c *Client) drive(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.driveID != "" {
		return c.driveID, nil
	}

	var site graphID
	siteURL := fmt.Sprintf("%s/sites/%s:/sites/%s", c.cfg.BaseURL, c.cfg.Host, escapePath(c.cfg.Site))
	if err := c.getJSON(ctx, siteURL, &site); err != nil {
		return "", fmt.Errorf("resolve site %s: %w", c.cfg.Site, err)
	}
	var drive graphID
	if err := c.getJSON(ctx, fmt.Sprintf("%s/sites/%s/drive", c.cfg.BaseURL, site.ID), &drive); err != nil {
		return "", fmt.Errorf("resolve drive of %s: %w", c.cfg.Site, err)
	}
	if drive.ID == "" {
		return "", fmt.Errorf("resolve drive of %s: empty id", c.cfg.Site)
	}
	c.siteID, c.driveID = site.ID, drive.ID
	return c.driveID, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	data, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("graph decode %s: %w", u, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graph %s %s: read body: %w", method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &statusError{Method: method, URL: u, Code: resp.StatusCode, Body: msg}
	}
	return data, nil
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.Code == code
}

// escapePath escapes each segment of a slash separated path.
func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
