// Package gemini implements generator.Generator on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/generator"
)

const defaultModel = "gemini-2.5-flash"

// maxPayloadRunes bounds one activity record as rendered into the prompt.
const maxPayloadRunes = 240

var ErrEmptyResponse = errors.New("model returned no text")

const planInstruction = `You are a supportive health and fitness coach. Write a practical plan for the coming week
covering training, nutrition, recovery and sleep. Respect every allergy, injury and dietary
preference in the profile. Use the daily targets as the anchor for nutrition advice. Answer in Markdown.`

const replyInstruction = `You are a supportive health and fitness coach replying to a check-in message.
Keep the answer short and specific to the user's profile and recent activity. Never give medical
diagnoses; suggest seeing a professional when pain or symptoms are persistent. Answer in Markdown.`

type Generator struct {
	client *genai.Client
	model  string
}

var _ generator.Generator = (*Generator)(nil)

func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, req generator.Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(Prompt(req), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instruction(req.Kind), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.6),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate %s: %w", req.Kind, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func instruction(k generator.Kind) string {
	if k == generator.KindReply {
		return replyInstruction
	}
	return planInstruction
}

// Prompt renders the user turn: coach context, recent activity and, for replies, the message.
func Prompt(req generator.Request) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Context))
	b.WriteString("\n\n")
	b.WriteString(RenderActivity(req.Activity))
	if req.Kind == generator.KindReply {
		b.WriteString("\nMessage from the user:\n")
		b.WriteString(req.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderActivity lists each domain's records newest first, one line per record.
func RenderActivity(s domain.ActivitySnapshot) string {
	if s.Total() == 0 {
		return "Recent activity: none logged.\n"
	}
	var b strings.Builder
	b.WriteString("Recent activity:\n")
	for _, d := range domain.ActivityDomains {
		recs := s.Records(d)
		if len(recs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", d.Label(), len(recs))
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s", r.OccurredAt.UTC().Format(time.DateTime))
			if p := payloadText(r.Payload); p != "" {
				b.WriteString(": ")
				b.WriteString(p)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func payloadText(raw []byte) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if s == "" || s == "null" || s == "{}" {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxPayloadRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxPayloadRunes-1]) + "…"
}
