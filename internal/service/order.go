package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/counter"
	"github.com/brewtab/cafe-backend/internal/events"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
	"github.com/brewtab/cafe-backend/pkg/logging"
)

const orderNumberPrefix = "ORD"

// statusTransitions is the full lifecycle; orders are never deleted, they
// only move forward or get cancelled before they are ready.
var statusTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

func transitionAllowed(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type OrderService struct {
	Repo     *repo.GormRepo
	Seq      *counter.DailySequence
	Producer *events.Producer
	Logger   *slog.Logger
}

type CheckoutItem struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	TableNumber   string         `json:"tableNumber"`
	Items         []CheckoutItem `json:"items"`
}

func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, apperr.Validation("customer name is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("items required")
	}

	ids := make([]uint, 0, len(req.Items))
	for i := range req.Items {
		if req.Items[i].MenuItemID == 0 {
			return nil, apperr.Validation("menu_item_id required")
		}
		if req.Items[i].Quantity <= 0 {
			return nil, apperr.Validation("quantity must be > 0")
		}
		ids = append(ids, req.Items[i].MenuItemID)
	}

	menuItems, err := s.Repo.FindMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byID := make(map[uint]*models.MenuItem, len(menuItems))
	for i := range menuItems {
		byID[menuItems[i].ID] = &menuItems[i]
	}

	var total int64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		mi, ok := byID[reqItem.MenuItemID]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("unknown menu item %d", reqItem.MenuItemID))
		}
		if !mi.Available {
			return nil, apperr.Validation(fmt.Sprintf("menu item %q is not available", mi.Name))
		}
		lineTotal := int64(reqItem.Quantity) * mi.Price
		items = append(items, models.OrderItem{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   reqItem.Quantity,
			LineTotal:  lineTotal,
		})
		total += lineTotal
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:   s.nextOrderNumber(ctx, now),
		CustomerName:  req.CustomerName,
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		TableNumber:   strings.TrimSpace(req.TableNumber),
		Status:        models.OrderStatusPending,
		Total:         total,
		Items:         items,
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		if repo.IsDuplicate(err) {
			// lost a number collision; timestamp numbers are unique enough
			order.OrderNumber = timestampOrderNumber(now)
			err = s.Repo.CreateOrder(ctx, order)
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
	}

	s.publish(events.TopicOrderEvents, order.OrderNumber, map[string]interface{}{
		"type":        "order_created",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.Total,
	})

	l.Info("order_created", "orderNumber", order.OrderNumber, "total", order.Total)
	return order, nil
}

// nextOrderNumber is PREFIX + YYYYMMDD + zero-padded daily sequence. The
// sequence comes from an atomic per-day Redis counter; when Redis is
// unreachable checkout still succeeds with a timestamp-based number.
func (s *OrderService) nextOrderNumber(ctx context.Context, now time.Time) string {
	if s.Seq != nil {
		if n, err := s.Seq.Next(ctx, now); err == nil {
			return fmt.Sprintf("%s%s%04d", orderNumberPrefix, now.Format("20060102"), n)
		} else {
			s.logger().Warn("order_sequence_unavailable", "error", err)
		}
	}
	return timestampOrderNumber(now)
}

func timestampOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s%s%s%03d", orderNumberPrefix, now.Format("20060102"), now.Format("150405"), now.Nanosecond()/1e6)
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, apperr.Internal(err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	if status != "" {
		if _, ok := statusTransitions[status]; !ok {
			return nil, apperr.Validation("unknown status " + status)
		}
	}
	orders, err := s.Repo.ListOrders(ctx, status, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status")

	if _, ok := statusTransitions[status]; !ok {
		return nil, apperr.Validation("unknown status " + status)
	}

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, apperr.Internal(err)
	}

	if !transitionAllowed(order.Status, status) {
		return nil, apperr.Validation(fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.Repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, apperr.Internal(err)
	}
	order.Status = status

	s.publish(events.TopicOrderEvents, order.OrderNumber, map[string]interface{}{
		"type":        "order_status_changed",
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      status,
	})

	l.Info("order_status_changed", "orderNumber", order.OrderNumber, "status", status)
	return order, nil
}

type DashboardStats struct {
	OrdersToday   int64          `json:"ordersToday"`
	RevenueToday  int64          `json:"revenueToday"`
	PendingOrders int64          `json:"pendingOrders"`
	RecentOrders  []models.Order `json:"recentOrders"`
}

func (s *OrderService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	ordersToday, err := s.Repo.CountOrdersSince(ctx, startOfDay)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	revenueToday, err := s.Repo.RevenueSince(ctx, startOfDay)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	pending, err := s.Repo.CountOrdersByStatus(ctx, models.OrderStatusPending)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	recent, err := s.Repo.RecentOrders(ctx, 10)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &DashboardStats{
		OrdersToday:   ordersToday,
		RevenueToday:  revenueToday,
		PendingOrders: pending,
		RecentOrders:  recent,
	}, nil
}

func (s *OrderService) publish(topic, key string, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Producer.PublishEvent(ctx, topic, key, event); err != nil {
			s.logger().Error("kafka_publish_failed", "topic", topic, "error", err)
		}
	}()
}

func (s *OrderService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
