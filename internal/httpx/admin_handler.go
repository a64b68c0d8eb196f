package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/events"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/media"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Uploader interface {
	Upload(ctx context.Context, r io.ReaderAt, size int64, filename string) (media.Result, error)
}

// AdminHandler proxies product mutations and image uploads. Every
// successful mutation drops the cache and publishes a ProductChanged event.
type AdminHandler struct {
	Products      Products
	Cache         ProductCache
	Events        Publisher
	Uploader      Uploader
	UploadTimeout time.Duration
	Service       string
	Log           *zap.Logger
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/products", h.createProduct)
		r.Post("/products/clean", h.cleanProducts)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/uploads", h.upload)
	})
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var draft catalog.ProductDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if draft.Name == nil || *draft.Name == "" || draft.Category == nil || draft.Price == nil {
		writeMessage(w, http.StatusBadRequest, "name, category and price are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.Create(ctx, draft)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.changed(ctx, r, events.EventProductCreated, p.ID, p.Category)
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var draft catalog.ProductDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.Update(ctx, chi.URLParam(r, "id"), draft)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.changed(ctx, r, events.EventProductUpdated, p.ID, p.Category)
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.Products.Delete(ctx, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.changed(ctx, r, events.EventProductDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) cleanProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	res, err := h.Products.Clean(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.changed(ctx, r, events.EventProductsCleaned, "", "")
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	timeout := h.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	// detached from the router timeout, which is shorter than a large upload
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	res, err := h.Uploader.Upload(ctx, file, hdr.Size, hdr.Filename)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) changed(ctx context.Context, r *http.Request, eventType, productID, category string) {
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, productID); err != nil {
			h.Log.Warn("product cache invalidate failed", zap.String("product_id", productID), zap.Error(err))
		}
	}
	if h.Events == nil {
		return
	}
	key := productID
	if key == "" {
		key = eventType
	}
	ev, err := events.NewEnvelope(eventType, h.Service, middleware.GetReqID(r.Context()), key,
		events.ProductChangedPayload{ProductID: productID, Category: category})
	if err != nil {
		h.Log.Warn("encode product event", zap.Error(err))
		return
	}
	if !h.Events.Publish(events.PartitionKey(key), kafkax.MustMarshal(ev),
		kafkago.Header{Key: events.HeaderEventType, Value: []byte(eventType)},
		kafkago.Header{Key: events.HeaderEventVersion, Value: []byte("1")},
	) {
		h.Log.Warn("product event dropped", zap.String("event_type", eventType), zap.String("product_id", productID))
	}
}
