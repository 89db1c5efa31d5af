package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/interface/presenter"
	"github.com/stylehub/commerce-backend/internal/usecase"
)

type PaymentHandler struct {
	usecase         usecase.PaymentUsecase
	presenter       *presenter.PaymentPresenter
	signatureHeader string
}

// NewPaymentHandler builds the handler; signatureHeader names the header the
// gateway signs webhooks in.
func NewPaymentHandler(uc usecase.PaymentUsecase, p *presenter.PaymentPresenter, signatureHeader string) *PaymentHandler {
	return &PaymentHandler{usecase: uc, presenter: p, signatureHeader: signatureHeader}
}

// RegisterPublicRoutes mounts the webhook, which authenticates by signature.
func (h *PaymentHandler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/payments/webhook", h.webhook)
}

func (h *PaymentHandler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/payments/initiate", h.initiate)
	r.Post("/payments/verify", h.verify)
	r.Get("/payments/:id", h.get)
	r.Post("/payments/:id/refund", RequireStaff, h.refund)
	r.Get("/orders/:id/payments", h.listByOrder)
}

type initiateRequest struct {
	OrderID     string `json:"orderId"`
	Email       string `json:"email"`
	CallbackURL string `json:"callbackUrl"`
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

type refundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

func (h *PaymentHandler) initiate(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(initiateRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	if payload.OrderID == "" {
		return badRequest(c, "orderId is required")
	}
	email := payload.Email
	if email == "" {
		email = emailFromCtx(c)
	}
	payment, err := h.usecase.Initiate(c.UserContext(), userID, usecase.InitiatePaymentInput{
		OrderID:     payload.OrderID,
		Email:       email,
		CallbackURL: payload.CallbackURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.presenter.ToInitiation(payment))
}

func (h *PaymentHandler) verify(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(verifyRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	if payload.Reference == "" {
		return badRequest(c, "reference is required")
	}
	payment, err := h.usecase.Verify(c.UserContext(), userID, payload.Reference)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(payment))
}

func (h *PaymentHandler) webhook(c *fiber.Ctx) error {
	// Body is only valid for the lifetime of the handler.
	payload := append([]byte(nil), c.Body()...)
	res, err := h.usecase.HandleWebhook(c.UserContext(), payload, c.Get(h.signatureHeader))
	if err != nil {
		c.Locals(ErrorLocal, err.Error())
		status := StatusFor(err)
		msg := err.Error()
		if errors.Is(err, entity.ErrInvalidSignature) {
			msg = "invalid signature"
		} else if status == fiber.StatusInternalServerError {
			msg = "internal server error"
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
	}
	return c.JSON(fiber.Map{"success": true, "message": res.Message})
}

func (h *PaymentHandler) refund(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payload := new(refundRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest(c, "invalid json body")
	}
	res, err := h.usecase.Refund(c.UserContext(), usecase.RefundInput{
		PaymentID: c.Params("id"),
		UserID:    userID,
		Staff:     IsStaff(c),
		Amount:    payload.Amount,
		Reason:    payload.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToRefund(res))
}

func (h *PaymentHandler) get(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payment, err := h.usecase.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToResponse(payment))
}

func (h *PaymentHandler) listByOrder(c *fiber.Ctx) error {
	userID, err := UserIDFromCtx(c)
	if err != nil {
		return unauthorized(c)
	}
	payments, err := h.usecase.ListByOrder(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.presenter.ToList(payments))
}
