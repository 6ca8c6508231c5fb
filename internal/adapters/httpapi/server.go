package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi/oas"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/coachcontext"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP adapter over the accounts and plans services.
type Server struct {
	Accounts *accounts.Service
	Plans    *plans.Service
	Idem     idempotency.Store

	clk    clockport.Clock
	logger *zap.Logger
}

// NewServer wires the handlers. idem may be nil, in which case Idempotency-Key is ignored.
func NewServer(accountsSvc *accounts.Service, plansSvc *plans.Service, idem idempotency.Store, clk clockport.Clock, logger *zap.Logger) *Server {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Server{
		Accounts: accountsSvc,
		Plans:    plansSvc,
		Idem:     idem,
		clk:      clk,
		logger:   logging.OrNop(logger),
	}
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeOASError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
	}
	return id, ok
}

// decodeBody decodes a JSON body into dst, writing a 422 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeOASError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing request body", nil)
			return false
		}
		writeOASError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid JSON body", map[string]any{"body": err.Error()})
		return false
	}
	return true
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	got, err := s.Accounts.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, oas.GetProfileResponse{
		Profile:           profileToOAS(got.Profile),
		OnboardingAnswers: answersToOAS(got.OnboardingAnswers),
	})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body oas.UpdateProfileRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := s.Accounts.UpsertProfile(r.Context(), userID, updateProfileInputFromOAS(body))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, oas.UpdateProfileResponse{Profile: profileToOAS(p)})
}

func (s *Server) UpsertOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body oas.OnboardingRequest
	if !decodeBody(w, r, &body) {
		return
	}
	saved, err := s.Accounts.UpsertOnboardingAnswers(r.Context(), userID, answersFromOAS(body.Answers))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, oas.OnboardingResponse{Answers: answersToOAS(saved)})
}

const generatePlanRoute = "/ai/generate-plan"

func (s *Server) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body oas.GeneratePlanRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}
	notes := ""
	if body.Notes != nil {
		notes = *body.Notes
	}

	// Idempotency handling:
	// - Replay if same user+key+route+bodyHash
	// - Reject if same user+key+route with different bodyHash (409)
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var metaFP idempotency.Fingerprint
	bodyHash := hashGeneratePlanBody(notes)
	if key != "" && s.Idem != nil {
		metaFP = idempotency.Fingerprint{
			Key:    idempotency.Key(key),
			UserID: userID,
			Method: http.MethodPost,
			Route:  generatePlanRoute,
		}
		meta, found, err := s.Idem.Get(r.Context(), metaFP)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if found && string(meta.Body) != bodyHash {
			writeOASError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return
		}
		if !found {
			_ = s.Idem.Put(r.Context(), metaFP, idempotency.Record{
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   s.clk.Now().UTC(),
			})
		}

		respFP := metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := s.Idem.Get(r.Context(), respFP); err != nil {
			s.writeAppError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
			var payload oas.GeneratePlanResponse
			if err := json.Unmarshal(rec.Body, &payload); err == nil {
				w.Header().Set("Idempotent-Replayed", "true")
				writeJSON(w, http.StatusOK, payload)
				return
			}
		}
	}

	res, err := s.Plans.GeneratePlan(r.Context(), userID, plans.GeneratePlanInput{Notes: notes})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	resp := oas.GeneratePlanResponse{Plan: res.Content, StoredPlan: nullable.NewNullNullable[oas.StoredPlan]()}
	if res.Stored != nil {
		resp.StoredPlan = nullable.NewNullableWithValue(storedPlanToOAS(*res.Stored))
	}

	if key != "" && s.Idem != nil {
		respFP := metaFP
		respFP.BodyHash = bodyHash
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(r.Context(), respFP, idempotency.Record{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   s.clk.Now().UTC(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) CoachReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body oas.CoachReplyRequest
	if !decodeBody(w, r, &body) {
		return
	}
	in := plans.ReplyInput{Message: body.Message}
	if body.Notes != nil {
		in.Notes = *body.Notes
	}
	res, err := s.Plans.Reply(r.Context(), userID, in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, oas.CoachReplyResponse{Reply: res.Content})
}

func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeOASError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", map[string]any{"limit": "must be a positive integer"})
			return
		}
		limit = n
	}
	stored, err := s.Plans.Recent(r.Context(), userID, limit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	out := make([]oas.StoredPlan, 0, len(stored))
	for _, p := range stored {
		out = append(out, storedPlanToOAS(p))
	}
	writeJSON(w, http.StatusOK, oas.ListPlansResponse{Plans: out})
}

// hashGeneratePlanBody canonicalizes notes the way the context builder will see them.
func hashGeneratePlanBody(notes string) string {
	canon := coachcontext.TruncateNotes(notes)
	raw, _ := json.Marshal(oas.GeneratePlanRequest{Notes: &canon})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
