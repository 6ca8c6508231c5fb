package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi/oas"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/plans"
)

func oasError(ctx context.Context, code string, message string, details map[string]any) oas.ErrorResponse {
	var er oas.ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(ctx); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	return er
}

func writeOASError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, oasError(r.Context(), code, message, details))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAppError maps application errors onto the error envelope. Anything unrecognised is a 500
// and is logged; its text never reaches the client.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if ae := (*accounts.Error)(nil); errors.As(err, &ae) {
		writeOASError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	if pe := (*plans.Error)(nil); errors.As(err, &pe) {
		if pe.Status >= http.StatusInternalServerError {
			s.logger.Warn("generation request failed",
				zap.String("code", pe.Code),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
		}
		writeOASError(w, r, pe.Status, pe.Code, pe.Message, pe.Details)
		return
	}
	if errors.Is(err, context.Canceled) {
		// The client is gone; nothing useful can be written.
		return
	}
	s.logger.Error("unhandled error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeOASError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
