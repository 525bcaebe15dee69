package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errInvalidID is reported for a path id that is not a positive integer.
var errInvalidID = errors.New("invalid id")

// writeServiceError maps err to a single JSON response. Unexpected errors are
// logged and reported without detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteValidationError(w, verr.Issues)
	case errors.Is(err, errInvalidID):
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, service.ErrEmailTaken):
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrUnauthenticated):
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrNotFound):
		httputil.WriteErrorMessage(w, http.StatusNotFound, "module not found")
	default:
		logger.Error("request failed", zap.Error(err))
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads the request body into dst. Malformed bodies are returned as
// a *service.ValidationError naming the offending field where known.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var (
		typeErr *json.UnmarshalTypeError
		sizeErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return service.NewValidationError("body", "is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return service.NewValidationError(field, fmt.Sprintf("must be of type %s", jsonType(typeErr.Type.Kind())))
	case errors.As(err, &sizeErr):
		return service.NewValidationError("body", "is too large")
	default:
		return service.NewValidationError("body", "must be a valid JSON object")
	}
}

func jsonType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return "object"
	}
}

// parseID reads the {id} path parameter, which must be a positive integer.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
