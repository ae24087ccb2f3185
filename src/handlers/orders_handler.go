package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/walkermail/src/logger"
	"github.com/username/walkermail/src/models"
	"github.com/username/walkermail/src/services"
	"github.com/username/walkermail/src/utils"
)

const ordersCacheKey = "orders"

// OrderHandler serves the parsed order archive over HTTP. Orders are read
// from the orders file and cached; edits to the file show up after the
// cache entry expires.
type OrderHandler struct {
	orderService  services.OrderService
	outputService services.OutputService
	ordersPath    string
	ordersCache   *cache.Cache
}

func NewOrderHandler(orderService services.OrderService, outputService services.OutputService, ordersPath string, ordersCache *cache.Cache) *OrderHandler {
	return &OrderHandler{
		orderService:  orderService,
		outputService: outputService,
		ordersPath:    ordersPath,
		ordersCache:   ordersCache,
	}
}

func (h *OrderHandler) loadOrders() ([]models.Order, error) {
	if cached, found := h.ordersCache.Get(ordersCacheKey); found {
		return cached.([]models.Order), nil
	}
	orders, err := h.orderService.LoadOrders(h.ordersPath)
	if err != nil {
		return nil, err
	}
	h.ordersCache.Set(ordersCacheKey, orders, cache.DefaultExpiration)
	return orders, nil
}

// outputOptionsFromQuery reads the optional since, until and normalize query
// parameters. Dates use the 2006-01-02 layout.
func outputOptionsFromQuery(r *http.Request) (services.OutputOptions, error) {
	var opts services.OutputOptions
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return opts, fmt.Errorf("invalid since parameter: %w", err)
		}
		opts.Since = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return opts, fmt.Errorf("invalid until parameter: %w", err)
		}
		opts.Until = t
	}
	opts.NormalizeTitles = r.URL.Query().Get("normalize") == "true"
	return opts, nil
}

// HandleGetOrders returns the stored orders as the JSON array, optionally
// filtered and normalized via query parameters. Responses carry an ETag so
// clients polling the archive can skip unchanged payloads.
func (h *OrderHandler) HandleGetOrders(w http.ResponseWriter, r *http.Request) {
	opts, err := outputOptionsFromQuery(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.loadOrders()
	if err != nil {
		logger.L.Error("Error loading orders", "path", h.ordersPath, "error", err)
		utils.SendJSONError(w, "error loading orders", http.StatusInternalServerError)
		return
	}
	orders = h.outputService.Prepare(orders, opts)

	var buf bytes.Buffer
	if err := h.outputService.Render(&buf, orders, "json"); err != nil {
		logger.L.Error("Error rendering orders", "error", err)
		utils.SendJSONError(w, "error rendering orders", http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(buf.String())
	if err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

// HandleGetTitles returns the sorted book title listing as a JSON array.
func (h *OrderHandler) HandleGetTitles(w http.ResponseWriter, r *http.Request) {
	opts, err := outputOptionsFromQuery(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.loadOrders()
	if err != nil {
		logger.L.Error("Error loading orders", "path", h.ordersPath, "error", err)
		utils.SendJSONError(w, "error loading orders", http.StatusInternalServerError)
		return
	}
	orders = h.outputService.Prepare(orders, opts)

	var buf bytes.Buffer
	if err := h.outputService.Render(&buf, orders, "titles"); err != nil {
		logger.L.Error("Error rendering titles", "error", err)
		utils.SendJSONError(w, "error rendering titles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}

// HandleGetReport returns the markdown expense table.
func (h *OrderHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	opts, err := outputOptionsFromQuery(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.loadOrders()
	if err != nil {
		logger.L.Error("Error loading orders", "path", h.ordersPath, "error", err)
		utils.SendJSONError(w, "error loading orders", http.StatusInternalServerError)
		return
	}
	orders = h.outputService.Prepare(orders, opts)

	var buf bytes.Buffer
	if err := h.outputService.Render(&buf, orders, "markdown"); err != nil {
		logger.L.Error("Error rendering report", "error", err)
		utils.SendJSONError(w, "error rendering report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(buf.Bytes())
}

// HandleHealth reports liveness.
func (h *OrderHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
