// Package remotesync is the device-side HTTP client for the remote profile API.
package remotesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi/oas"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilesync"
)

// Client implements profilesync.Client.
type Client struct {
	baseURL string
	token   string
	headers http.Header
	http    *http.Client
}

var _ profilesync.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(cl *Client) { cl.headers.Set(key, value) }
}

// New returns a client for baseURL. A non-empty token is sent as a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		headers: http.Header{},
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote returned %d", e.StatusCode)
}

// Unwrap classifies 4xx responses as profilesync.ErrRejected.
func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return profilesync.ErrRejected
	}
	return nil
}

func (c *Client) Pull(ctx context.Context) (profilesync.Pulled, error) {
	var resp oas.GetProfileResponse
	err := c.do(ctx, http.MethodGet, "/profile", nil, &resp)
	if se := (*StatusError)(nil); errors.As(err, &se) && se.StatusCode == http.StatusNotFound && se.Code == "PROFILE_NOT_FOUND" {
		return profilesync.Pulled{}, nil
	}
	if err != nil {
		return profilesync.Pulled{}, err
	}
	answers := make([]domain.OnboardingAnswer, 0, len(resp.OnboardingAnswers))
	for _, a := range resp.OnboardingAnswers {
		answers = append(answers, domain.OnboardingAnswer{QuestionKey: a.QuestionKey, Answer: a.Answer})
	}
	rp := remoteProfile(resp.Profile)
	return profilesync.Pulled{Profile: &rp, OnboardingAnswers: answers}, nil
}

func (c *Client) Push(ctx context.Context, bundle domain.ProfileBundle) error {
	return c.do(ctx, http.MethodPut, "/profile", updateRequest(bundle), nil)
}

func (c *Client) PushOnboarding(ctx context.Context, answers []domain.OnboardingAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	body := oas.OnboardingRequest{Answers: make([]oas.OnboardingAnswer, 0, len(answers))}
	for _, a := range answers {
		body.Answers = append(body.Answers, oas.OnboardingAnswer{QuestionKey: a.QuestionKey, Answer: a.Answer})
	}
	return c.do(ctx, http.MethodPost, "/profile/onboarding", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	if h, ok := ctx.Value(headerKey{}).(http.Header); ok {
		for k, vs := range h {
			req.Header[k] = vs
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var er oas.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er); err == nil {
			se.Code = er.Error.Code
			se.Message = er.Error.Message
		}
		return se
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func ptr[T, U any](n nullable.Nullable[T], conv func(T) U) *U {
	v, err := n.Get()
	if err != nil {
		return nil
	}
	u := conv(v)
	return &u
}

// list treats an empty remote list as absent so a sparse remote record cannot wipe local lists.
func list(xs []string) *[]string {
	if len(xs) == 0 {
		return nil
	}
	out := append([]string(nil), xs...)
	return &out
}

func remoteProfile(p oas.Profile) profilesync.RemoteProfile {
	return profilesync.RemoteProfile{
		Name:      ptr(p.Name, func(s string) string { return s }),
		Sex:       ptr(p.Sex, func(s string) domain.Sex { return domain.Sex(s) }),
		Birthdate: ptr(p.Birthdate, func(d openapi_types.Date) time.Time { return d.Time.UTC() }),
		HeightCm:  ptr(p.HeightCm, func(v float64) float64 { return v }),
		WeightKg:  ptr(p.WeightKg, func(v float64) float64 { return v }),
		Goal:      ptr(p.Goal, func(s string) domain.Goal { return domain.Goal(s) }),
		Activity:  ptr(p.Activity, func(s string) domain.ActivityLevel { return domain.ActivityLevel(s) }),
		Diet:      ptr(p.Diet, func(s string) domain.Diet { return domain.Diet(s) }),
		Allergies: list(p.Allergies),
		Injuries:  list(p.Injuries),
		Equipment: list(p.Equipment),
	}
}

func value[T any](v T) nullable.Nullable[T] {
	return nullable.NewNullableWithValue(v)
}

// text sends an empty string as null so the remote clears the field.
func text(s string) nullable.Nullable[string] {
	if s == "" {
		return nullable.NewNullNullable[string]()
	}
	return value(s)
}

func updateRequest(b domain.ProfileBundle) oas.UpdateProfileRequest {
	p := b.Profile
	a := b.Advanced
	req := oas.UpdateProfileRequest{
		Name:      text(p.Name),
		Sex:       value(string(p.Sex)),
		Birthdate: value(openapi_types.Date{Time: p.Birthdate}),
		HeightCm:  value(p.HeightCm),
		WeightKg:  value(p.WeightKg),
		Goal:      value(string(p.Goal)),
		Activity:  value(string(p.Activity)),
		Diet:      value(string(p.Diet)),
		Allergies: value(append([]string{}, p.Allergies...)),
		Injuries:  value(append([]string{}, p.Injuries...)),
		Equipment: value(append([]string{}, p.Equipment...)),

		BloodType:          text(a.BloodType),
		Chronotype:         text(string(a.Chronotype)),
		ReproductiveStatus: text(string(a.ReproductiveStatus)),
		KnownConditions:    value(append([]string{}, a.KnownConditions...)),
		Supplements:        value(append([]string{}, a.Supplements...)),
		FoodDislikes:       value(append([]string{}, a.FoodDislikes...)),
		BudgetNotes:        text(a.BudgetNotes),
	}

	t := b.Targets
	ot := oas.Targets{
		Source:         string(t.Source),
		TargetCalories: t.TargetCalories,
		ProteinG:       t.ProteinG,
		CarbsG:         t.CarbsG,
		FatG:           t.FatG,
		HydrationMl:    t.HydrationMl,
		SleepHours:     t.SleepHours,
	}
	if t.RestingHeartRate != nil {
		ot.RestingHeartRate = value(*t.RestingHeartRate)
	}
	if t.MaxHeartRate != nil {
		ot.MaxHeartRate = value(*t.MaxHeartRate)
	}
	req.Targets = value(ot)
	return req
}
