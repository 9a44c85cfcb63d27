// Package events publishes search analytics to NATS with OpenTelemetry
// trace context carried in message headers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// SubjectSearchPerformed is published after every successful search.
const SubjectSearchPerformed = "search.performed"

// SearchPerformed describes one completed search. The query text itself is
// not published.
type SearchPerformed struct {
	QueryLen   int       `json:"query_len"`
	Results    int       `json:"results"`
	TopScore   float32   `json:"top_score"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publisher sends events to NATS. A nil or disabled Publisher drops events.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// Connect dials NATS at url. An empty url returns a disabled Publisher.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		return &Publisher{logger: logger}, nil
	}
	nc, err := nats.Connect(url, nats.Name("place-search-api"))
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return &Publisher{nc: nc, logger: logger}, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// Enabled reports whether events are sent anywhere.
func (p *Publisher) Enabled() bool { return p != nil && p.nc != nil }

// Publish serializes v as JSON and publishes it to subject. Trace context
// from ctx is injected into the message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return nc.PublishMsg(msg)
}

// SearchPerformed publishes ev. Failures are logged, never returned, so a
// broker outage cannot fail a search.
func (p *Publisher) SearchPerformed(ctx context.Context, ev SearchPerformed) {
	if !p.Enabled() {
		return
	}
	if err := Publish(ctx, p.nc, SubjectSearchPerformed, ev); err != nil {
		p.logger.Warn("publish search event failed", "err", err)
	}
}

// Close closes the connection.
func (p *Publisher) Close() {
	if p.Enabled() {
		p.nc.Close()
	}
}
