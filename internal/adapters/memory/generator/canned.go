// Package generator provides a deterministic stand-in for the external model, used in
// development and tests.
package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/generator"
)

// Canned renders a fixed markdown response from the request. It records every request it sees.
type Canned struct {
	mu       sync.Mutex
	requests []generator.Request
	// Err, when set, is returned instead of a response.
	Err error
}

var _ generator.Generator = (*Canned)(nil)

func NewCanned() *Canned { return &Canned{} }

func (c *Canned) Generate(ctx context.Context, req generator.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.requests = append(c.requests, req)
	err := c.Err
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	switch req.Kind {
	case generator.KindReply:
		fmt.Fprintf(&b, "Thanks for the update. You said: %q.\n\n", strings.TrimSpace(req.Message))
	default:
		b.WriteString("# Your plan\n\n")
	}
	b.WriteString("## Recent activity\n\n")
	for _, d := range domain.ActivityDomains {
		fmt.Fprintf(&b, "- %d %s\n", len(req.Activity.Records(d)), d.Label())
	}
	if first, _, ok := strings.Cut(req.Context, "\n"); ok || first != "" {
		fmt.Fprintf(&b, "\nBased on: %s\n", first)
	}
	return b.String(), nil
}

// Requests returns a copy of every request seen so far.
func (c *Canned) Requests() []generator.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]generator.Request(nil), c.requests...)
}
