package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/ledger"
	"github.com/ariefcatur/go-storefront/internal/media"
	"github.com/ariefcatur/go-storefront/internal/productapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderSessionID = "X-Session-Id"

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

type sessionKey struct{}

// Session reads X-Session-Id, or issues a new id, and echoes it back.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderSessionID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderSessionID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody mirrors the backend's {message} contract so the UI unwraps both alike.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Message: msg})
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var (
		apiErr    *productapi.APIError
		uploadErr *media.UploadError
		verrs     checkout.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: "invalid address", Errors: verrs})
	case errors.As(err, &apiErr):
		code := apiErr.Status
		if code >= 500 {
			code = http.StatusBadGateway
		}
		writeMessage(w, code, apiErr.Message)
	case errors.As(err, &uploadErr):
		log.Warn("upload failed", zap.Error(err))
		writeMessage(w, http.StatusBadGateway, uploadErr.Message)
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, media.ErrEmptyFile):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, productapi.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, cart.ErrNotInCart), errors.Is(err, checkout.ErrUnknownPincode),
		errors.Is(err, ledger.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrContended):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeMessage(w, http.StatusGatewayTimeout, "upstream timeout")
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
