// Package statsd emits metrics over UDP in the DogStatsD line format.
// Recorder adapts it to the session, guard and HTTP observations.
package statsd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

// Tag is one key:value pair appended to a line.
type Tag struct {
	Key   string
	Value string
}

// T builds a Tag.
func T(key, value string) Tag { return Tag{Key: key, Value: value} }

// Sink is what Recorder writes to.
type Sink interface {
	Count(name string, n int64, tags ...Tag)
	Timing(name string, d time.Duration, tags ...Tag)
}

// Config describes the agent endpoint.
type Config struct {
	Address string // host:port, required
	Prefix  string // prepended to every metric name with a dot
	Tags    []Tag  // sent on every line before the per-call tags
	Logger  *slog.Logger
}

// Client writes one datagram per metric. Safe for concurrent use; a nil
// *Client drops everything.
type Client struct {
	prefix string
	common string

	logger *slog.Logger
	mu     sync.Mutex
	conn   net.Conn
}

var _ Sink = (*Client)(nil)

// NewClient dials the agent. UDP dials do not contact the peer, so an
// unreachable agent only shows up as dropped writes.
func NewClient(cfg Config) (*Client, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return nil, errors.New("statsd address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", addr, err)
	}
	return newClient(conn, cfg.Prefix, cfg.Tags, logger), nil
}

func newClient(conn net.Conn, prefix string, tags []Tag, logger *slog.Logger) *Client {
	var b strings.Builder
	appendTags(&b, tags)
	return &Client{
		prefix: strings.Trim(strings.TrimSpace(prefix), "."),
		common: b.String(),
		logger: logger,
		conn:   conn,
	}
}

// Count adds n to a counter.
func (c *Client) Count(name string, n int64, tags ...Tag) {
	c.send(name, strconv.FormatInt(n, 10), "c", tags)
}

// Timing records d in milliseconds.
func (c *Client) Timing(name string, d time.Duration, tags ...Tag) {
	ms := float64(d) / float64(time.Millisecond)
	c.send(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Close releases the socket. Later writes are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, value, kind string, tags []Tag) {
	if c == nil {
		return
	}
	line := c.format(name, value, kind, tags)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

// format renders "prefix.name:value|kind|#k:v,...".
func (c *Client) format(name, value, kind string, tags []Tag) string {
	metric := metricName(name)
	if metric == "" {
		return ""
	}
	var b strings.Builder
	if c.prefix != "" {
		b.WriteString(c.prefix)
		b.WriteByte('.')
	}
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)

	var local strings.Builder
	appendTags(&local, tags)
	switch {
	case c.common != "" && local.Len() > 0:
		b.WriteString("|#" + c.common + "," + local.String())
	case c.common != "":
		b.WriteString("|#" + c.common)
	case local.Len() > 0:
		b.WriteString("|#" + local.String())
	}
	return b.String()
}

// metricName maps spaces and slashes to underscores and drops empty dot segments.
func metricName(name string) string {
	n := strings.NewReplacer(" ", "_", "/", "_").Replace(strings.TrimSpace(name))
	parts := strings.Split(n, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

//nolint:gochecknoglobals // read-only replacer
var tagValueReplacer = strings.NewReplacer(",", "_", "|", "_", "#", "_", " ", "_", "\n", "_", "\t", "_")

func appendTags(b *strings.Builder, tags []Tag) {
	for _, t := range tags {
		key := strings.TrimSpace(t.Key)
		if key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tagValueReplacer.Replace(key))
		b.WriteByte(':')
		b.WriteString(tagValueReplacer.Replace(strings.TrimSpace(t.Value)))
	}
}
