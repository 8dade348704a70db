package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"catalog-admin/internal/models"
	"catalog-admin/internal/services"
	"catalog-admin/internal/storage"
)

const maxOrderBodyBytes = 1 << 20

// OrderHandler 封装了订单相关的 HTTP 处理器方法。
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler 创建一个新的 OrderHandler 实例。
func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrdersResponse 是订单列表的响应体。
type OrdersResponse struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
}

// CompleteOrderRequest 是 PATCH /api/orders 的请求体。id 可以是数字或字符串。
type CompleteOrderRequest struct {
	ID json.RawMessage `json:"id"`
}

// parseID 接受 123 或 "123"。缺失或为空时返回 0。
func (c CompleteOrderRequest) parseID() (uint, error) {
	if len(c.ID) == 0 || string(c.ID) == "null" {
		return 0, nil
	}
	var n uint64
	if err := json.Unmarshal(c.ID, &n); err == nil {
		return uint(n), nil
	}
	var s string
	if err := json.Unmarshal(c.ID, &s); err != nil {
		return 0, fmt.Errorf("无效的订单 ID: %s", c.ID)
	}
	if s == "" {
		return 0, nil
	}
	id, err := storage.StrToUint(s)
	if err != nil {
		return 0, fmt.Errorf("无效的订单 ID: %q", s)
	}
	return id, nil
}

// CreateOrder 处理 POST /api/orders。
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input services.CreateOrderInput
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONErrorDetail(w, "无效的请求体", err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.orderService.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrder) {
			writeJSONErrorDetail(w, "创建订单失败", err.Error(), http.StatusBadRequest)
			return
		}
		writeInternalError(w, r, "创建订单失败", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, order)
}

// ListOrders 处理 GET /api/orders?order=&date=。
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orderService.List(r.Context(), services.OrderFilter{
		OrderNumber: q.Get("order"),
		Date:        q.Get("date"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			writeJSONErrorDetail(w, "查询订单失败", err.Error(), http.StatusBadRequest)
			return
		}
		writeInternalError(w, r, "查询订单失败", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, OrdersResponse{Orders: orders, Total: len(orders)})
}

// CompleteOrder 处理 PATCH /api/orders，将订单标记为已完成。
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req CompleteOrderRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorDetail(w, "无效的请求体", err.Error(), http.StatusBadRequest)
		return
	}

	id, err := req.parseID()
	if err != nil {
		writeJSONErrorDetail(w, "无效的订单 ID", err.Error(), http.StatusBadRequest)
		return
	}
	if id == 0 {
		writeJSONError(w, "订单 ID 是必填项", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.Complete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			writeJSONErrorDetail(w, "订单未找到", "ID "+strconv.FormatUint(uint64(id), 10), http.StatusNotFound)
		case errors.Is(err, services.ErrInvalidOrder):
			writeJSONErrorDetail(w, "无效的订单", err.Error(), http.StatusBadRequest)
		default:
			writeInternalError(w, r, "完成订单失败", err)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}
