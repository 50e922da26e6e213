package wgeasy

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/constants"
)

// ErrClientNotFound is returned when WG-Easy knows no client with the given id
var ErrClientNotFound = errors.New("wg-easy client not found")

// Client represents a WG-Easy panel API client
type Client struct {
	httpClient  *resty.Client
	config      config.WGEasyConfig
	cookieCache *cache.Cache
	logger      *logrus.Logger
}

// RemoteClient is a WireGuard client as WG-Easy reports it
type RemoteClient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type sessionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewClient creates a new WG-Easy API client
func NewClient(cfg config.WGEasyConfig, logger *logrus.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(constants.DefaultTimeout * time.Second).
		SetRetryCount(constants.DefaultRetryCount).
		SetRetryWaitTime(constants.DefaultRetryWaitTime * time.Second).
		SetRetryMaxWaitTime(constants.DefaultRetryMaxWaitTime * time.Second).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	return &Client{
		httpClient:  httpClient,
		config:      cfg,
		cookieCache: cache.New(constants.CacheExpiration*time.Minute, constants.CacheCleanupInterval*time.Minute),
		logger:      logger,
	}
}

// Login opens a WG-Easy session and caches its cookies
func (c *Client) Login(ctx context.Context) error {
	if _, found := c.cookieCache.Get("session"); found {
		return nil
	}

	c.logger.Infof("Logging in to WG-Easy at %s", c.config.URL)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"password": c.config.Password}).
		Post(fmt.Sprintf("%s/api/session", c.config.URL))

	if err != nil {
		return fmt.Errorf("wg-easy login request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		c.logger.Errorf("WG-Easy login failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return fmt.Errorf("wg-easy login failed with status code: %d", resp.StatusCode())
	}

	// Older panels answer {success:true}, newer ones an empty 204
	if len(resp.Body()) > 0 {
		var sessResp sessionResponse
		if err := json.Unmarshal(resp.Body(), &sessResp); err == nil && !sessResp.Success && sessResp.Error != "" {
			return fmt.Errorf("wg-easy login failed: %s", sessResp.Error)
		}
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return errors.New("no session cookie received from wg-easy")
	}

	c.cookieCache.Set("session", cookies, cache.DefaultExpiration)
	c.logger.Info("Successfully logged in to WG-Easy")
	return nil
}

// ListClients returns all WireGuard clients known to the panel
func (c *Client) ListClients(ctx context.Context) ([]RemoteClient, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	cookies, _ := c.cookieCache.Get("session")

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		Get(fmt.Sprintf("%s/api/wireguard/client", c.config.URL))

	if err != nil {
		return nil, fmt.Errorf("list clients request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			return c.ListClients(ctx)
		}
		c.logger.Errorf("List clients failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return nil, fmt.Errorf("list clients failed with status code: %d", resp.StatusCode())
	}

	var clients []RemoteClient
	if err := json.Unmarshal(resp.Body(), &clients); err != nil {
		return nil, fmt.Errorf("failed to parse clients response: %w", err)
	}
	return clients, nil
}

// CreateClient creates a WireGuard client and resolves its id.
// The create endpoint returns only a success flag, so the id is recovered by
// re-listing and matching the name; on a name collision the newest entry wins.
func (c *Client) CreateClient(ctx context.Context, name string) (*RemoteClient, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}

	cookies, _ := c.cookieCache.Get("session")

	c.logger.Infof("Creating WG-Easy client %q", name)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"name": name}).
		Post(fmt.Sprintf("%s/api/wireguard/client", c.config.URL))

	if err != nil {
		return nil, fmt.Errorf("create client request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			return c.CreateClient(ctx, name)
		}
		c.logger.Errorf("Create client failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return nil, fmt.Errorf("create client failed with status code: %d", resp.StatusCode())
	}

	clients, err := c.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve created client: %w", err)
	}

	var created *RemoteClient
	for i := range clients {
		if clients[i].Name == name {
			created = &clients[i]
		}
	}
	if created == nil {
		return nil, fmt.Errorf("created client %q not found in panel listing", name)
	}

	c.logger.Infof("Created WG-Easy client %q with id %s", name, created.ID)
	return created, nil
}

// GetConfiguration fetches the plain-text .conf for a client
func (c *Client) GetConfiguration(ctx context.Context, clientID string) (string, error) {
	if err := c.Login(ctx); err != nil {
		return "", err
	}

	cookies, _ := c.cookieCache.Get("session")

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		Get(fmt.Sprintf("%s/api/wireguard/client/%s/configuration", c.config.URL, clientID))

	if err != nil {
		return "", fmt.Errorf("get configuration request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			return c.GetConfiguration(ctx, clientID)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return "", ErrClientNotFound
		}
		c.logger.Errorf("Get configuration failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return "", fmt.Errorf("get configuration failed with status code: %d", resp.StatusCode())
	}

	return string(resp.Body()), nil
}

// DeleteClient removes a client from the panel
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	if err := c.Login(ctx); err != nil {
		return err
	}

	cookies, _ := c.cookieCache.Get("session")

	c.logger.Infof("Deleting WG-Easy client %s", clientID)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		Delete(fmt.Sprintf("%s/api/wireguard/client/%s", c.config.URL, clientID))

	if err != nil {
		return fmt.Errorf("delete client request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			return c.DeleteClient(ctx, clientID)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return ErrClientNotFound
		}
		c.logger.Errorf("Delete client failed - Status: %d, Response: %s", resp.StatusCode(), string(resp.Body()))
		return fmt.Errorf("delete client failed with status code: %d", resp.StatusCode())
	}

	return nil
}
