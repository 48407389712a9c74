package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// Handlers serves products and orders
type Handlers struct {
	store  *Store
	logger *zap.Logger
}

func NewHandlers(store *Store, logger *zap.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Products())
}

func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Search(r.URL.Query().Get("keyword")))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, found := h.store.Product(id)
	if !found {
		respondError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	data, contentType, found := h.store.Image(id)
	if !found {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, img, imgType, err := readProductForm(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if img == nil {
		respondError(w, product.ErrMissingImageFile.Error(), http.StatusBadRequest)
		return
	}
	if err := p.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	created := h.store.AddProduct(p, img, imgType)
	h.logger.Info("product created", zap.Int64("product_id", created.ID))
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, img, imgType, err := readProductForm(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := p.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.store.UpdateProduct(id, p, img, imgType)
	if errors.Is(err, product.ErrProductNotFound) {
		respondError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(id); err != nil {
		respondError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := userFromContext(r.Context())

	var req order.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	placed, err := h.store.PlaceOrder(claims.Username, req)
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrInsufficientStock):
		respondError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logger.Info("order placed",
		zap.String("order_id", string(placed.OrderID)),
		zap.String("username", claims.Username))
	respondJSON(w, http.StatusCreated, placed)
}

func (h *Handlers) MyOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := userFromContext(r.Context())
	respondJSON(w, http.StatusOK, h.store.Orders(claims.Username))
}

func (h *Handlers) AllOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Orders(""))
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := order.ID(chi.URLParam(r, "id"))
	if err := h.store.SetOrderStatus(id, status); err != nil {
		respondError(w, "Order not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"orderId": string(id), "status": string(status)})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, "Invalid product id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// readProductForm decodes the "product" JSON part and the optional
// "imageFile" part. img is nil when no image was sent.
func readProductForm(r *http.Request) (product.Product, []byte, string, error) {
	var p product.Product
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return p, nil, "", errors.New("expected multipart form")
	}

	raw := []byte(r.FormValue("product"))
	if len(raw) == 0 {
		file, _, err := r.FormFile("product")
		if err != nil {
			return p, nil, "", errors.New("missing product part")
		}
		defer file.Close()
		if raw, err = io.ReadAll(file); err != nil {
			return p, nil, "", err
		}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, nil, "", errors.New("invalid product json")
	}

	file, header, err := r.FormFile("imageFile")
	if errors.Is(err, http.ErrMissingFile) {
		return p, nil, "", nil
	}
	if err != nil {
		return p, nil, "", err
	}
	defer file.Close()
	img, err := io.ReadAll(file)
	if err != nil {
		return p, nil, "", err
	}
	p.ImageName = header.Filename
	p.ImageType = header.Header.Get("Content-Type")
	return p, img, p.ImageType, nil
}
