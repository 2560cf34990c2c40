// ABOUTME: JSON error response helper for middleware
// ABOUTME: Writes the same ErrorResponse shape the handlers use

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/markalston/inference-capacity-planner/models"
)

// ErrCodeRateLimited marks requests rejected by RateLimit
const ErrCodeRateLimited = "RATE_LIMITED"

func writeJSONError(w http.ResponseWriter, message, errorCode string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:     message,
		Code:      code,
		ErrorCode: errorCode,
	})
}
