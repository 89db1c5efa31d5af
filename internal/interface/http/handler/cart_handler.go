package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/interface/presenter"
	"github.com/stylehub/commerce-backend/internal/usecase"
)

// CartHandler adapts cart requests to the cart use case.
type CartHandler struct {
	usecase   usecase.CartUsecase
	presenter *presenter.CartPresenter
}

func NewCartHandler(uc usecase.CartUsecase, p *presenter.CartPresenter) *CartHandler {
	return &CartHandler{usecase: uc, presenter: p}
}

func (h *CartHandler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/cart", h.get)
	r.Delete("/cart", h.clear)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/:variantId", h.updateItem)
	r.Delete("/cart/items/:variantId", h.removeItem)
}

type addCartItemRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) get(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	cart, err := h.usecase.Get(c.UserContext(), userID)
	return h.respond(c, fiber.StatusOK, cart, err)
}

func (h *CartHandler) addItem(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(addCartItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	if payload.VariantID == "" {
		return badRequest(c, "variantId is required")
	}
	cart, err := h.usecase.AddItem(c.UserContext(), userID, usecase.AddCartItemInput{
		VariantID: payload.VariantID,
		Quantity:  payload.Quantity,
	})
	return h.respond(c, fiber.StatusOK, cart, err)
}

func (h *CartHandler) updateItem(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(updateCartItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	cart, err := h.usecase.UpdateItemQuantity(c.UserContext(), userID, c.Params("variantId"), payload.Quantity)
	return h.respond(c, fiber.StatusOK, cart, err)
}

func (h *CartHandler) removeItem(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	cart, err := h.usecase.RemoveItem(c.UserContext(), userID, c.Params("variantId"))
	return h.respond(c, fiber.StatusOK, cart, err)
}

func (h *CartHandler) clear(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.usecase.Clear(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) respond(c *fiber.Ctx, status int, cart *entity.Cart, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.presenter.ToResponse(cart)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(res)
}
