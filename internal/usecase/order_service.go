package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
	"github.com/stylehub/commerce-backend/internal/domain/service"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrUnknownAction = apperror.New(apperror.ErrValidation, "unknown status action")

// OrderService implements OrderUsecase.
type OrderService struct {
	store      repository.Store
	calculator *service.OrderCalculator
	log        *logging.Logger
	now        func() time.Time
}

var _ OrderUsecase = (*OrderService)(nil)

func NewOrderService(store repository.Store, calculator *service.OrderCalculator, log *logging.Logger) *OrderService {
	return &OrderService{store: store, calculator: calculator, log: log, now: time.Now}
}

// CreateFromCart converts the user's cart into a pending order. Stock
// decrements, the order rows, clearing the cart and the order.created event
// commit together or not at all.
func (s *OrderService) CreateFromCart(ctx context.Context, userID string, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.IdempotencyKey != "" {
		if prior, err := s.store.Repositories().Orders.FindByIdempotencyKey(ctx, userID, input.IdempotencyKey); err == nil {
			return &CreateOrderResult{Order: prior, Replayed: true}, nil
		} else if !errors.Is(err, entity.ErrOrderNotFound) {
			return nil, err
		}
	}

	var created *entity.Order
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if errors.Is(err, entity.ErrCartNotFound) {
			return entity.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return entity.ErrEmptyCart
		}

		// Lock every variant up front, in id order, then check all stock
		// before touching anything.
		ids := make([]string, 0, len(cart.Items))
		for _, it := range cart.Items {
			ids = append(ids, it.ProductVariantID)
		}
		sort.Strings(ids)
		variants, err := repos.Variants.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		priced := make([]service.PricedItem, 0, len(cart.Items))
		for _, it := range cart.Items {
			v, ok := variants[it.ProductVariantID]
			if !ok {
				return fmt.Errorf("%w: %s", entity.ErrVariantNotFound, it.ProductVariantID)
			}
			if !v.HasStock(it.Quantity) {
				return &entity.InsufficientStockError{ProductName: it.ProductName, Requested: it.Quantity, Available: v.StockQuantity}
			}
			priced = append(priced, service.PricedItem{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
		}

		in := input.ShippingAddress
		total, err := s.calculator.CalculateTotal(priced, input.DiscountPercentage, in.State)
		if err != nil {
			return err
		}
		addr, err := entity.NewAddress(in.Street, in.City, in.State, in.Country, in.PostalCode, in.AdditionalInfo)
		if err != nil {
			return err
		}
		number, err := entity.GenerateOrderNumber(s.now())
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}

		order := entity.NewOrder(userID, number, total, addr)
		order.IdempotencyKey = input.IdempotencyKey
		order.Lines = make([]*entity.OrderLine, 0, len(cart.Items))
		for _, it := range cart.Items {
			line, err := entity.NewOrderLine(order.ID, it, variants[it.ProductVariantID])
			if err != nil {
				return err
			}
			order.Lines = append(order.Lines, line)
		}
		// The pre-check can be stale under concurrency; the conditional
		// decrement is the authority.
		for _, id := range ids {
			if err := repos.Variants.DecrementStock(ctx, id, quantityFor(cart, id)); err != nil {
				return err
			}
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.Orders.CreateLines(ctx, order.Lines); err != nil {
			return fmt.Errorf("create order lines: %w", err)
		}
		if err := repos.Carts.ClearItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		event, err := orderEvent(entity.TopicOrderCreated, order, "")
		if err != nil {
			return err
		}
		if err := repos.Events.Append(ctx, event); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		// A concurrent request with the same key won the race.
		if input.IdempotencyKey != "" && errors.Is(err, entity.ErrDuplicateOrder) {
			if prior, findErr := s.store.Repositories().Orders.FindByIdempotencyKey(ctx, userID, input.IdempotencyKey); findErr == nil {
				return &CreateOrderResult{Order: prior, Replayed: true}, nil
			}
		}
		return nil, err
	}

	s.log.Info("order created", logging.Fields{UserID: userID, OrderID: created.ID, Status: string(created.Status)})
	return &CreateOrderResult{Order: created}, nil
}

func quantityFor(cart *entity.Cart, variantID string) int {
	if it, ok := cart.FindItem(variantID); ok {
		return it.Quantity
	}
	return 0
}

// Cancel moves the order to cancelled and puts every line's quantity back on
// its variant. A line whose variant no longer exists is logged and skipped.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	var out *entity.Order
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := ownedOrder(ctx, repos, userID, orderID)
		if err != nil {
			return err
		}
		previous := order.Status
		if err := order.Cancel(); err != nil {
			return err
		}

		lines := append([]*entity.OrderLine(nil), order.Lines...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductVariantID < lines[j].ProductVariantID })
		for _, l := range lines {
			err := repos.Variants.IncrementStock(ctx, l.ProductVariantID, l.Quantity)
			if errors.Is(err, entity.ErrVariantNotFound) {
				s.log.Warn("stock restore skipped, variant no longer exists", logging.Fields{
					OrderID: order.ID, VariantID: l.ProductVariantID, Step: "order.cancel",
				})
				continue
			}
			if err != nil {
				return fmt.Errorf("restore stock for variant %s: %w", l.ProductVariantID, err)
			}
		}

		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		event, err := orderEvent(entity.TopicOrderCancelled, order, previous)
		if err != nil {
			return err
		}
		if err := repos.Events.Append(ctx, event); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled", logging.Fields{UserID: userID, OrderID: out.ID, Status: string(out.Status)})
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	return ownedOrder(ctx, s.store.Repositories(), userID, orderID)
}

func (s *OrderService) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Order, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Repositories().Orders.ListByUserID(ctx, userID, limit, offset)
}

func (s *OrderService) UpdateShippingAddress(ctx context.Context, userID, orderID string, input AddressInput) (*entity.Order, error) {
	addr, err := entity.NewAddress(input.Street, input.City, input.State, input.Country, input.PostalCode, input.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	var out *entity.Order
	err = s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := ownedOrder(ctx, repos, userID, orderID)
		if err != nil {
			return err
		}
		if err := order.UpdateShippingAddress(addr); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdvanceStatus applies one forward transition on behalf of staff; there is
// no ownership check.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, action StatusAction) (*entity.Order, error) {
	var out *entity.Order
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		previous := order.Status
		switch action {
		case ActionConfirm:
			err = order.Confirm()
		case ActionProcess:
			err = order.StartProcessing()
		case ActionShip:
			err = order.Ship()
		case ActionDeliver:
			err = order.Deliver()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		if err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		event, err := orderEvent(entity.TopicOrderStatusChanged, order, previous)
		if err != nil {
			return err
		}
		if err := repos.Events.Append(ctx, event); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order status changed", logging.Fields{OrderID: out.ID, Step: string(action), Status: string(out.Status)})
	return out, nil
}

// ownedOrder loads an order and hides other users' orders as not found.
func ownedOrder(ctx context.Context, repos repository.Repositories, userID, orderID string) (*entity.Order, error) {
	order, err := repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.BelongsTo(userID) {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, orderID)
	}
	return order, nil
}
