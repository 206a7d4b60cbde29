package infrastructure

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"openproject-mcp-server/internal/domain"
)

// Connector lazily builds the shared OpenProjectClient on first use.
// Construction runs once and its result, client or error, is cached for
// every later caller.
type Connector struct {
	config  domain.OpenProjectConfig
	metrics *ClientMetrics
	logger  *slog.Logger

	once   sync.Once
	client *OpenProjectClient
	err    error

	transportOnce sync.Once
	base          http.RoundTripper
	limiter       *rate.Limiter
	transportErr  error
}

// NewConnector creates a connector for config. Nothing is validated or
// dialed until Client is called.
func NewConnector(config domain.OpenProjectConfig, metrics *ClientMetrics, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Client returns the shared client, building it on the first call.
// A missing URL or API key yields a *domain.ConfigurationError before any
// network call.
func (c *Connector) Client(ctx context.Context) (*OpenProjectClient, error) {
	c.once.Do(func() {
		c.client, c.err = c.build()
		if c.err != nil {
			c.logger.Error("OpenProject client not configured", slog.String("error", c.err.Error()))
			return
		}
		c.logger.Info("OpenProject client initialized", slog.String("base_url", c.config.BaseURL))
		if c.config.TestConnectionOnStartup {
			c.checkConnection(ctx)
		}
	})
	return c.client, c.err
}

// ClientWithCredentials returns a client that authenticates with creds
// instead of the configured key. nil creds returns the shared client.
func (c *Connector) ClientWithCredentials(ctx context.Context, creds *domain.Credentials) (*OpenProjectClient, error) {
	if creds == nil {
		return c.Client(ctx)
	}
	if c.config.BaseURL == "" {
		return nil, &domain.ConfigurationError{Missing: []string{"OPENPROJECT_URL"}}
	}
	if err := c.initTransport(); err != nil {
		return nil, err
	}

	manager := domain.NewAuthenticationManager(nil, c.base, c.config.Timeout)
	httpClient, err := manager.GetAuthenticatedClientWithCredentials(creds)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: err.Error()}
	}
	return c.newClient(httpClient), nil
}

func (c *Connector) build() (*OpenProjectClient, error) {
	if err := c.config.RequireConnection(); err != nil {
		return nil, err
	}
	if err := c.initTransport(); err != nil {
		return nil, err
	}

	manager := domain.NewAuthenticationManager(domain.CredentialsFromConfig(&c.config), c.base, c.config.Timeout)
	httpClient, err := manager.GetAuthenticatedClient()
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: err.Error()}
	}

	return c.newClient(httpClient), nil
}

// initTransport builds the proxy-aware base transport and the rate limiter
// shared by every client the connector hands out.
func (c *Connector) initTransport() error {
	c.transportOnce.Do(func() {
		base, err := NewOutboundTransport(c.config.Proxy)
		if err != nil {
			c.transportErr = &domain.ConfigurationError{Reason: err.Error()}
			return
		}
		c.base = base
		if c.config.RateLimit > 0 {
			burst := c.config.RateBurst
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(c.config.RateLimit), burst)
		}
	})
	return c.transportErr
}

func (c *Connector) newClient(httpClient *http.Client) *OpenProjectClient {
	return NewOpenProjectClient(c.config.BaseURL, httpClient,
		WithLimiter(c.limiter),
		WithMetrics(c.metrics),
		WithLogger(c.logger))
}

// checkConnection logs the outcome of a root request. It never fails
// client construction.
func (c *Connector) checkConnection(ctx context.Context) {
	root, err := c.client.Root(ctx)
	if err != nil {
		c.logger.Error("API connection test failed", slog.String("error", err.Error()))
		return
	}
	c.logger.Info("API connection test successful",
		slog.String("instance", root.InstanceName),
		slog.String("core_version", root.CoreVersion))
}
