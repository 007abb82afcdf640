// Package intelapi implements the pull side of intel acquisition: a JSON
// client for the theater intel gateway, exposing the engine's source
// contracts. It complements the push-based MQTT feed; either or both may
// be configured.
package intelapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/infra/logger"
)

// Client queries the intel gateway over HTTP. It satisfies every source
// interface in core/intel.
type Client struct {
	http    *http.Client
	baseURL string
	log     logger.Logger
}

// New builds a gateway client. With auth configured the underlying HTTP
// client carries a self-refreshing bearer token.
func New(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	hc := &http.Client{Timeout: timeout}
	if cfg.Auth.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = cc.Client(ctx)
		hc.Timeout = timeout
	}
	return &Client{
		http:    hc,
		baseURL: cfg.BaseURL,
		log:     logger.New("intel_api"),
	}, nil
}

// Sources exposes the client through the engine's source bundle.
func (c *Client) Sources() intel.Sources {
	return intel.Sources{
		Convoys:     c,
		Routes:      c,
		Checkpoints: c,
		Threat:      c,
		Weather:     c,
	}
}

// Convoy fetches one convoy record.
func (c *Client) Convoy(ctx context.Context, id string) (model.Convoy, error) {
	var out model.Convoy
	err := c.get(ctx, "/convoys/"+url.PathEscape(id), &out)
	return out, err
}

// Convoys fetches every convoy known to the gateway.
func (c *Client) Convoys(ctx context.Context) ([]model.Convoy, error) {
	var out []model.Convoy
	err := c.get(ctx, "/convoys", &out)
	return out, err
}

// Route fetches one route record.
func (c *Client) Route(ctx context.Context, id string) (model.Route, error) {
	var out model.Route
	err := c.get(ctx, "/routes/"+url.PathEscape(id), &out)
	return out, err
}

// Checkpoint fetches one traffic control point record.
func (c *Client) Checkpoint(ctx context.Context, id string) (model.Checkpoint, error) {
	var out model.Checkpoint
	err := c.get(ctx, "/checkpoints/"+url.PathEscape(id), &out)
	return out, err
}

// Indicators fetches the current threat indicator strings for a route.
func (c *Client) Indicators(ctx context.Context, routeID string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/routes/"+url.PathEscape(routeID)+"/threats", &out)
	return out, err
}

// Advisory fetches the current weather advisory text for a route.
func (c *Client) Advisory(ctx context.Context, routeID string) (string, error) {
	var out struct {
		Advisory string `json:"advisory"`
	}
	if err := c.get(ctx, "/routes/"+url.PathEscape(routeID)+"/weather", &out); err != nil {
		return "", err
	}
	return out.Advisory, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugf("GET %s: %v", path, err)
		return fmt.Errorf("%w: %v", intel.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		c.log.Debugf("GET %s: %s", path, resp.Status)
		return fmt.Errorf("%w: %s returned %s", intel.ErrUnavailable, path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", intel.ErrUnavailable, path, err)
	}
	return nil
}
