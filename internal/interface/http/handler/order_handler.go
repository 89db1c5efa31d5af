package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/interface/presenter"
	"github.com/stylehub/commerce-backend/internal/usecase"
	"github.com/stylehub/commerce-backend/pkg/idempotency"
)

type OrderHandler struct {
	usecase   usecase.OrderUsecase
	presenter *presenter.OrderPresenter
}

func NewOrderHandler(uc usecase.OrderUsecase, p *presenter.OrderPresenter) *OrderHandler {
	return &OrderHandler{usecase: uc, presenter: p}
}

func (h *OrderHandler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/:id", h.get)
	r.Put("/orders/:id/shipping-address", h.updateShippingAddress)
	r.Post("/orders/:id/cancel", h.cancel)
}

// RegisterStaffRoutes expects r to be guarded by RequireStaff.
func (h *OrderHandler) RegisterStaffRoutes(r fiber.Router) {
	r.Post("/orders/:id/status", h.advanceStatus)
}

type addressRequest struct {
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PostalCode     string `json:"postalCode"`
	AdditionalInfo string `json:"additionalInfo"`
}

func (a addressRequest) input() usecase.AddressInput {
	return usecase.AddressInput{
		Street:         a.Street,
		City:           a.City,
		State:          a.State,
		Country:        a.Country,
		PostalCode:     a.PostalCode,
		AdditionalInfo: a.AdditionalInfo,
	}
}

type createOrderRequest struct {
	ShippingAddress    addressRequest   `json:"shippingAddress"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
}

type statusRequest struct {
	Action string `json:"action"`
}

func (h *OrderHandler) create(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	input := usecase.CreateOrderInput{ShippingAddress: payload.ShippingAddress.input()}
	if payload.DiscountPercentage != nil {
		input.DiscountPercentage = *payload.DiscountPercentage
	}
	if raw := c.Get(idempotency.Header); raw != "" {
		key, ok := idempotency.Normalize(raw)
		if !ok {
			return badRequest(c, "invalid "+idempotency.Header+" header")
		}
		input.IdempotencyKey = key
	}

	res, err := h.usecase.CreateFromCart(c.UserContext(), userID, input)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(h.presenter.ToResponse(res.Order))
}

func (h *OrderHandler) list(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	orders, err := h.usecase.List(c.UserContext(), userID, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToList(orders))
}

func (h *OrderHandler) get(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	order, err := h.usecase.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(order))
}

func (h *OrderHandler) updateShippingAddress(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	order, err := h.usecase.UpdateShippingAddress(c.UserContext(), userID, c.Params("id"), payload.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(order))
}

func (h *OrderHandler) cancel(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	order, err := h.usecase.Cancel(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(order))
}

func (h *OrderHandler) advanceStatus(c *fiber.Ctx) error {
	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	order, err := h.usecase.AdvanceStatus(c.UserContext(), c.Params("id"), usecase.StatusAction(payload.Action))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(order))
}
