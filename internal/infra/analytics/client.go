// Package analytics posts funnel events to the product analytics endpoint.
// The client is explicitly constructed and injected; there is no process-wide
// lazily-initialized singleton to race on.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
)

var _ adapter.AnalyticsClient = (*Client)(nil)

type Client struct {
	url     string
	token   string
	client  *http.Client
	entropy *ulid.MonotonicEntropy
	log     *zerolog.Logger
}

func NewClient(cfg config.AnalyticsConfig, logger *zerolog.Logger) *Client {
	return &Client{
		url:     cfg.URL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		log:     logger,
	}
}

type event struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Time  time.Time         `json:"time"`
	Props map[string]string `json:"props,omitempty"`
}

// Emit posts the event and swallows every failure: analytics must never block
// or fail a checkout.
func (c *Client) Emit(ctx context.Context, name string, props map[string]string) {
	if c.url == "" {
		return
	}
	now := time.Now()
	ev := event{
		ID:    ulid.MustNew(ulid.Timestamp(now), c.entropy).String(),
		Name:  name,
		Time:  now,
		Props: props,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		c.log.Debug().Err(err).Str("event", name).Msg("analytics marshal failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("event", name).Msg("analytics emit failed")
		return
	}
	resp.Body.Close()
}

// Noop is the dev/test stand-in.
type Noop struct{}

var _ adapter.AnalyticsClient = Noop{}

func (Noop) Emit(ctx context.Context, name string, props map[string]string) {}
