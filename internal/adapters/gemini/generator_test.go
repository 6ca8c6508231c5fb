package gemini

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/generator"
)

func TestRenderActivity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Recent activity: none logged.\n", RenderActivity(domain.ActivitySnapshot{}))

	at := time.Date(2024, time.September, 30, 7, 15, 0, 0, time.UTC)
	got := RenderActivity(domain.ActivitySnapshot{
		TrainingSessions: []domain.ActivityRecord{
			{ID: "a", OccurredAt: at, Payload: []byte(`{"type": "run",
				"km": 8}`)},
			{ID: "b", OccurredAt: at.Add(-24 * time.Hour)},
		},
		PainChecks: []domain.ActivityRecord{
			{ID: "c", OccurredAt: at, Payload: []byte(`{"note":"` + strings.Repeat("x", 400) + `"}`)},
		},
	})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "training sessions (2):", lines[1])
	assert.Equal(t, `- 2024-09-30 07:15:00: {"type": "run", "km": 8}`, lines[2])
	assert.Equal(t, "- 2024-09-29 07:15:00", lines[3])
	assert.Equal(t, "pain checks (1):", lines[4])
	assert.True(t, strings.HasSuffix(lines[5], "…"))
	assert.LessOrEqual(t, len([]rune(lines[5])), len("- 2024-09-30 07:15:00: ")+maxPayloadRunes)
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	plan := Prompt(generator.Request{Kind: generator.KindPlan, Context: "User profile:\n- Goal: fat loss\n", Message: "ignored"})
	assert.True(t, strings.HasPrefix(plan, "User profile:\n- Goal: fat loss\n\nRecent activity: none logged."))
	assert.NotContains(t, plan, "ignored")

	reply := Prompt(generator.Request{Kind: generator.KindReply, Context: "ctx", Message: "knee hurts"})
	assert.True(t, strings.HasSuffix(reply, "Message from the user:\nknee hurts\n"))
	assert.Equal(t, replyInstruction, instruction(generator.KindReply))
	assert.Equal(t, planInstruction, instruction(generator.KindPlan))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "", "")
	require.Error(t, err)
}
