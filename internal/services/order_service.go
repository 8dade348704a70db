package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
	"catalog-admin/internal/models"
	"catalog-admin/internal/storage"
)

var (
	ErrOrderNotFound = errors.New("订单未找到")
	ErrInvalidOrder  = errors.New("订单数据无效")
	ErrInvalidDate   = errors.New("日期格式无效，应为 YYYY-MM-DD")
)

// OrderItemInput 是创建订单时的一行明细。
type OrderItemInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// CreateOrderInput 是创建订单的请求体。OrderNumber 为空时自动生成。
type CreateOrderInput struct {
	OrderNumber   string           `json:"orderNumber"`
	CustomerName  string           `json:"customerName"`
	CustomerPhone string           `json:"customerPhone"`
	Notes         string           `json:"notes"`
	Items         []OrderItemInput `json:"items"`
}

// OrderFilter 对应 GET /api/orders 的查询参数。OrderNumber 优先于 Date。
type OrderFilter struct {
	OrderNumber string
	Date        string
}

// OrderService 定义了订单服务的接口。
type OrderService interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Complete(ctx context.Context, id uint) (*models.Order, error)
}

// orderService 是 OrderService 的实现。
type orderService struct {
	repo      storage.OrderRepository
	publisher catalogtypes.EventPublisher
	now       func() time.Time
}

// NewOrderService 创建一个新的 OrderService 实例。publisher 可以为 nil。
func NewOrderService(repo storage.OrderRepository, publisher catalogtypes.EventPublisher) OrderService {
	return &orderService{repo: repo, publisher: publisher, now: time.Now}
}

// GenerateOrderNumber 生成 "YYYYMMDD-XXXXXX" 格式的订单号。
func GenerateOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return t.UTC().Format("20060102") + "-" + suffix
}

// Create 校验并保存订单。
func (s *orderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: 客户姓名不能为空", ErrInvalidOrder)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: 订单至少需要一个商品", ErrInvalidOrder)
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for i, it := range input.Items {
		code := strings.TrimSpace(it.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: 第 %d 个商品缺少 code", ErrInvalidOrder, i+1)
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, fmt.Errorf("%w: 第 %d 个商品数量无效", ErrInvalidOrder, i+1)
		}
		items = append(items, models.OrderItem{
			Code:     code,
			Name:     strings.TrimSpace(it.Name),
			Category: strings.TrimSpace(it.Category),
			Quantity: qty,
		})
	}

	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		number = GenerateOrderNumber(s.now())
	}

	order := &models.Order{
		OrderNumber:   number,
		CustomerName:  name,
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Notes:         strings.TrimSpace(input.Notes),
		Pending:       true,
		Items:         items,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}

	metrics.RecordOrderEvent("created")
	logging.WithContext(ctx).Info("订单已创建",
		logging.Uint("order_id", order.ID),
		logging.String("order_number", order.OrderNumber),
		logging.Int("items", len(order.Items)),
	)
	publishEvent(ctx, s.publisher, catalogtypes.Event{
		Type:    catalogtypes.OrderCreatedEvent,
		Name:    order.OrderNumber,
		OrderID: order.ID,
	})
	return order, nil
}

// List 按订单号、日期 (UTC 自然日) 过滤，或返回全部订单；最新的在前。
func (s *orderService) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	if q := strings.TrimSpace(filter.OrderNumber); q != "" {
		return s.repo.SearchByOrderNumber(ctx, q)
	}
	if d := strings.TrimSpace(filter.Date); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			return nil, ErrInvalidDate
		}
		return s.repo.ListCreatedBetween(ctx, day, day.AddDate(0, 0, 1))
	}
	return s.repo.List(ctx)
}

// Complete 将订单标记为已完成并返回更新后的订单。
func (s *orderService) Complete(ctx context.Context, id uint) (*models.Order, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: 订单 ID 是必填项", ErrInvalidOrder)
	}
	if err := s.repo.MarkCompleted(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("完成订单失败: %w", err)
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("读取订单失败: %w", err)
	}

	metrics.RecordOrderEvent("completed")
	logging.WithContext(ctx).Info("订单已完成", logging.Uint("order_id", id))
	publishEvent(ctx, s.publisher, catalogtypes.Event{
		Type:    catalogtypes.OrderCompletedEvent,
		Name:    order.OrderNumber,
		OrderID: order.ID,
	})
	return order, nil
}
