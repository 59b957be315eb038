// Package httpx holds the JSON and error plumbing shared by the HTTP layers of
// both services.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a JSON body into dst and runs its validate tags.
// Failures are returned as apperr validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return Validate(dst)
}

// Validate runs the validate tags of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field %s failed on '%s'", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

var statusReasons = map[int]string{
	http.StatusBadRequest:          "Incorrectly made request.",
	http.StatusNotFound:            "The required object was not found.",
	http.StatusConflict:            "For the requested operation the conditions are not met.",
	http.StatusInternalServerError: "Unexpected error.",
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError renders err as the error envelope. Infrastructure errors are
// logged with the returned errorId and their detail is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, logger log.FieldLogger, err error) {
	status := StatusOf(err)
	resp := model.ErrorResponse{
		Status:    strings.ReplaceAll(strings.ToUpper(http.StatusText(status)), " ", "_"),
		Reason:    statusReasons[status],
		Message:   err.Error(),
		Timestamp: jsontime.Format(time.Now()),
		ErrorID:   uuid.NewString(),
	}

	entry := logger.WithFields(log.Fields{
		"error_id": resp.ErrorID,
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   status,
	})
	if status == http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
		resp.Message = "internal error, see server logs for " + resp.ErrorID
	} else {
		entry.WithError(err).Warn("request rejected")
	}
	WriteJSON(w, status, resp)
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
