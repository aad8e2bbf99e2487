package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/queue"
	"github.com/storekit/storefront-api/internal/request"
	"github.com/storekit/storefront-api/internal/validation"
)

// OrderHandler handles order-related requests
type OrderHandler struct {
	orderRepo   *database.OrderRepository
	productRepo *database.ProductRepository
	jobQueue    queue.JobQueue
}

// NewOrderHandler creates a new order handler. jobQueue may be nil, in
// which case order events are not published.
func NewOrderHandler(orderRepo *database.OrderRepository, productRepo *database.ProductRepository, jobQueue queue.JobQueue) *OrderHandler {
	return &OrderHandler{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		jobQueue:    jobQueue,
	}
}

// RegisterRoutes registers order routes on the given router
// The router should already have the /orders prefix
func (h *OrderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListOrders).Methods("GET")
	r.HandleFunc("", h.CreateOrder).Methods("POST")
	r.HandleFunc("/{id}", h.GetOrder).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateOrder).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteOrder).Methods("DELETE")
}

// OrderItemRequest is a single line in a create order request
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest represents a create order request
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderRequest represents an update order request
type UpdateOrderRequest struct {
	OrderStatus   *string `json:"order_status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

// OrderResponse is an order together with its items
type OrderResponse struct {
	*models.Order
	Items []*models.OrderItem `json:"items"`
}

// newOrderNumber builds a human-readable order number
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", now.Format("2006-01-02"), rand.Intn(1000000))
}

// CreateOrder places a new order for the authenticated user. Prices
// are read from the catalog at placement time; an order created event
// is published for asynchronous confirmation.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims := request.IdentityFromContext(r)
	if claims == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	userID, err := uuid.Parse(claims.Sub)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid user identity")
		return
	}

	var req CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	ctx := r.Context()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		OrderNumber:   newOrderNumber(time.Now()),
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
	}

	items := make([]*models.OrderItem, 0, len(req.Items))
	total := 0.0
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product ID")
			return
		}

		product, err := h.productRepo.GetByID(ctx, productID)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Product %s not found", productID))
			return
		}
		if !product.IsAvailable {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Product %s is not available", productID))
			return
		}

		items = append(items, &models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total += float64(line.Quantity) * product.Price
	}
	order.TotalAmount = total

	if err := h.orderRepo.CreateWithItems(ctx, order, items); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create order")
		return
	}

	// Publish the order created event. The order stays pending if this
	// fails; confirmation will not happen until the event is replayed.
	if h.jobQueue != nil {
		job := queue.NewOrderCreatedJob(order.ID, userID)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			log.Printf("Failed to enqueue order created event for order %s: %v", order.ID, err)
		}
	}

	respondJSON(w, http.StatusCreated, &OrderResponse{Order: order, Items: items})
}

// ListOrders lists orders, newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetOrder retrieves an order with its items
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid order ID")
		return
	}

	ctx := r.Context()
	order, err := h.orderRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Order not found")
		return
	}

	items, err := h.orderRepo.GetItems(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve order items")
		return
	}

	respondJSON(w, http.StatusOK, &OrderResponse{Order: order, Items: items})
}

// UpdateOrder updates the status fields of an order
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid order ID")
		return
	}

	ctx := r.Context()
	order, err := h.orderRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Order not found")
		return
	}

	var req UpdateOrderRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.OrderStatus != nil {
		if err := validation.ValidateOrderStatus(*req.OrderStatus); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		order.OrderStatus = models.OrderStatus(*req.OrderStatus)
	}
	if req.PaymentStatus != nil {
		if err := validation.ValidatePaymentStatus(*req.PaymentStatus); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		order.PaymentStatus = models.PaymentStatus(*req.PaymentStatus)
	}

	if err := h.orderRepo.Update(ctx, order); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// DeleteOrder deletes an order and its items
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid order ID")
		return
	}

	ctx := r.Context()
	if _, err := h.orderRepo.GetByID(ctx, id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Order not found")
		return
	}

	if err := h.orderRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete order")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}
