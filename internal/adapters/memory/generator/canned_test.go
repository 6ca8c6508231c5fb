package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/generator"
)

func TestCanned_RendersActivityCounts(t *testing.T) {
	t.Parallel()

	var snap domain.ActivitySnapshot
	snap.Set(domain.DomainNutrition, []domain.ActivityRecord{{ID: "m1"}, {ID: "m2"}})

	c := NewCanned()
	out, err := c.Generate(context.Background(), generator.Request{
		Kind:     generator.KindPlan,
		Context:  "Profile: Sam\nmore",
		Activity: snap,
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	for _, want := range []string{"# Your plan", "- 2 meals", "- 0 training sessions", "Based on: Profile: Sam"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Generate() missing %q in:\n%s", want, out)
		}
	}
	if got := len(c.Requests()); got != 1 {
		t.Fatalf("Requests() len=%d, want 1", got)
	}
}

func TestCanned_Err(t *testing.T) {
	t.Parallel()

	c := NewCanned()
	c.Err = errors.New("model down")
	if _, err := c.Generate(context.Background(), generator.Request{}); err == nil {
		t.Fatalf("Generate() err=nil, want error")
	}
}
