package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

var ErrEmailRequired = apperror.New(apperror.ErrValidation, "customer email is required")

// PaymentConfig carries the values the payment flows need from configuration.
type PaymentConfig struct {
	Provider    entity.PaymentProvider
	CallbackURL string
}

// PaymentService implements PaymentUsecase. Gateway calls are made outside
// units of work; state changes that follow them run inside one.
type PaymentService struct {
	store   repository.Store
	gateway gateway.PaymentGateway
	cfg     PaymentConfig
	log     *logging.Logger
}

var _ PaymentUsecase = (*PaymentService)(nil)

func NewPaymentService(store repository.Store, gw gateway.PaymentGateway, cfg PaymentConfig, log *logging.Logger) *PaymentService {
	if cfg.Provider == "" {
		cfg.Provider = entity.PaymentProviderPaystack
	}
	return &PaymentService{store: store, gateway: gw, cfg: cfg, log: log}
}

// Initiate persists a pending payment before calling the gateway. When the
// gateway fails the payment is marked failed and saved before the error is
// returned.
func (s *PaymentService) Initiate(ctx context.Context, userID string, input InitiatePaymentInput) (*entity.Payment, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	repos := s.store.Repositories()
	order, err := ownedOrder(ctx, repos, userID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.IsPayable(); err != nil {
		return nil, err
	}

	payment, err := entity.NewPayment(order.ID, s.cfg.Provider, order.Total.TotalAmount, entity.PaymentMetadata{
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		CustomerEmail: email,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.Payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	callback := input.CallbackURL
	if callback == "" {
		callback = s.cfg.CallbackURL
	}
	res, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:       email,
		Amount:      payment.Amount,
		Reference:   payment.ID,
		CallbackURL: callback,
		Metadata: map[string]string{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"payment_id":   payment.ID,
		},
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrGateway) {
			err = fmt.Errorf("%w: %v", apperror.ErrGateway, err)
		}
		s.failInitiation(ctx, payment, err)
		return nil, fmt.Errorf("initialize payment: %w", err)
	}

	payment.AttachReference(res.Reference, res.AccessCode, res.AuthorizationURL)
	if err := repos.Payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("store payment reference: %w", err)
	}
	s.log.Info("payment initiated", logging.Fields{
		UserID: userID, OrderID: order.ID, PaymentID: payment.ID, Reference: res.Reference, Status: string(payment.Status),
	})
	return payment, nil
}

func (s *PaymentService) failInitiation(ctx context.Context, payment *entity.Payment, cause error) {
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := payment.MarkAsFailed(cause.Error()); err != nil {
			return err
		}
		if err := repos.Payments.Update(ctx, payment); err != nil {
			return err
		}
		event, err := paymentEvent(entity.TopicPaymentFailed, payment, cause.Error())
		if err != nil {
			return err
		}
		return repos.Events.Append(ctx, event)
	})
	fields := logging.Fields{OrderID: payment.OrderID, PaymentID: payment.ID, Step: "payment.initiate", Error: cause.Error()}
	if err != nil {
		fields.Status = "unsaved"
		s.log.Error("gateway initialization failed and payment could not be marked failed: "+err.Error(), fields)
		return
	}
	fields.Status = string(payment.Status)
	s.log.Warn("gateway initialization failed", fields)
}

// Verify polls the gateway for reference and applies the outcome. A payment
// that is no longer pending, successful or failed, yields
// ErrPaymentAlreadyProcessed.
func (s *PaymentService) Verify(ctx context.Context, userID, reference string) (*entity.Payment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", entity.ErrPaymentNotFound)
	}
	repos := s.store.Repositories()
	payment, err := repos.Payments.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if _, err := ownedOrder(ctx, repos, userID, payment.OrderID); err != nil {
		return nil, fmt.Errorf("%w: reference %s", entity.ErrPaymentNotFound, reference)
	}
	if !payment.IsAwaitingConfirmation() {
		return nil, ErrAlreadyProcessed(payment)
	}

	res, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		if !errors.Is(err, apperror.ErrGateway) {
			err = fmt.Errorf("%w: %v", apperror.ErrGateway, err)
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	outcome := chargeOutcome{
		reference:     reference,
		status:        res.Status,
		transactionID: res.TransactionID,
		amount:        res.Amount,
		method:        res.Method,
		message:       res.Message,
	}
	result, err := s.reconcile(ctx, outcome)
	if err != nil {
		return nil, err
	}
	switch {
	case result.alreadyDone, result.ignored:
		return nil, ErrAlreadyProcessed(result.payment)
	case result.failure != nil:
		return nil, result.failure
	}
	return result.payment, nil
}

// ErrAlreadyProcessed wraps ErrPaymentAlreadyProcessed with the payment id.
func ErrAlreadyProcessed(p *entity.Payment) error {
	return fmt.Errorf("%w: payment %s", entity.ErrPaymentAlreadyProcessed, p.ID)
}

// HandleWebhook authenticates and applies one gateway notification. Replays
// of an already applied notification are acknowledged without changes.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if !s.gateway.VerifyWebhookSignature(payload, signature) {
		s.log.Warn("webhook rejected", logging.Fields{Step: "payment.webhook", Error: "invalid signature"})
		return nil, entity.ErrInvalidSignature
	}
	var event gateway.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook payload: %v", apperror.ErrValidation, err)
	}
	ref := event.Data.Reference
	fields := logging.Fields{Reference: ref, Step: "payment.webhook", Status: event.Event}

	switch event.Event {
	case gateway.EventChargeSuccess, gateway.EventChargeFailed:
	default:
		s.log.Info("webhook event unhandled, ignored", fields)
		return &WebhookResult{Message: "event " + event.Event + " unhandled, ignored"}, nil
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: webhook payload has no reference", apperror.ErrValidation)
	}

	outcome := chargeOutcome{
		reference:     ref,
		transactionID: fmt.Sprint(event.Data.ID),
		message:       event.Data.GatewayReason,
		minorAmount:   &event.Data.Amount,
		currency:      event.Data.Currency,
	}
	if event.Event == gateway.EventChargeSuccess {
		outcome.status = gateway.StatusSuccess
		outcome.method = event.Data.Authorization.Method(event.Data.Channel)
	} else {
		outcome.status = gateway.StatusFailed
	}

	result, err := s.reconcile(ctx, outcome)
	if errors.Is(err, entity.ErrPaymentNotFound) {
		s.log.Warn("webhook for unknown payment, ignored", fields)
		return &WebhookResult{Message: "payment not found, ignored"}, nil
	}
	if err != nil {
		return nil, err
	}
	switch {
	case result.alreadyDone:
		return &WebhookResult{Message: "payment already processed"}, nil
	case result.ignored:
		return &WebhookResult{Message: "payment already settled, ignored"}, nil
	case result.failure != nil:
		return &WebhookResult{Processed: true, Message: "payment marked failed"}, nil
	}
	return &WebhookResult{Processed: true, Message: "payment confirmed"}, nil
}

// chargeOutcome is a gateway's verdict on one charge, from either a verify
// call or a webhook.
type chargeOutcome struct {
	reference     string
	status        string
	transactionID string
	amount        entity.Money
	minorAmount   *int64
	currency      string
	method        *entity.PaymentMethod
	message       string
}

type reconcileResult struct {
	payment     *entity.Payment
	alreadyDone bool
	ignored     bool
	failure     error
}

// reconcile applies a gateway verdict to the payment and its order in one
// unit of work. Business outcomes that still commit, such as marking a
// payment failed, are reported in failure rather than as the error.
func (s *PaymentService) reconcile(ctx context.Context, oc chargeOutcome) (*reconcileResult, error) {
	result := &reconcileResult{}
	var events []string
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		events = events[:0]
		payment, err := repos.Payments.FindByReference(ctx, oc.reference)
		if err != nil {
			return err
		}
		result.payment = payment
		if payment.IsSuccessful() {
			result.alreadyDone = true
			return nil
		}
		if !payment.IsAwaitingConfirmation() {
			result.ignored = true
			return nil
		}
		order, err := repos.Orders.FindByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}

		switch oc.status {
		case gateway.StatusSuccess:
			paid := oc.amount
			if oc.minorAmount != nil {
				cur := oc.currency
				if cur == "" {
					cur = payment.Amount.Currency()
				}
				if paid, err = entity.MoneyFromMinor(*oc.minorAmount, cur); err != nil {
					return err
				}
			}
			if short, err := paid.IsLessThan(payment.Amount); err != nil || short {
				reason := fmt.Sprintf("amount mismatch: paid %s, expected %s", paid, payment.Amount)
				if err := s.markFailed(ctx, repos, payment, order, reason); err != nil {
					return err
				}
				result.failure = fmt.Errorf("%w: %s", entity.ErrAmountMismatch, reason)
				events = append(events, entity.TopicPaymentFailed)
				return nil
			}
			if err := payment.MarkAsSuccessful(oc.transactionID, oc.method); err != nil {
				return err
			}
			if err := repos.Payments.Update(ctx, payment); err != nil {
				return err
			}
			if !order.IsPaid() {
				if err := order.MarkAsPaid(); err != nil {
					return err
				}
			}
			previous := order.Status
			if order.Status == entity.OrderStatusPending {
				if err := order.Confirm(); err != nil {
					return err
				}
			} else {
				s.log.Warn("payment succeeded for order not awaiting confirmation", logging.Fields{
					OrderID: order.ID, PaymentID: payment.ID, Status: string(order.Status), Step: "payment.reconcile",
				})
			}
			if err := repos.Orders.Update(ctx, order); err != nil {
				return err
			}
			evt, err := paymentEvent(entity.TopicPaymentSucceeded, payment, "")
			if err != nil {
				return err
			}
			appended := []*entity.OutboxEvent{evt}
			if previous != order.Status {
				if evt, err = orderEvent(entity.TopicOrderStatusChanged, order, previous); err != nil {
					return err
				}
				appended = append(appended, evt)
			}
			events = append(events, entity.TopicPaymentSucceeded)
			return repos.Events.Append(ctx, appended...)

		case gateway.StatusFailed, gateway.StatusAbandoned, gateway.StatusReversed:
			reason := oc.message
			if reason == "" {
				reason = "gateway reported " + oc.status
			}
			if err := s.markFailed(ctx, repos, payment, order, reason); err != nil {
				return err
			}
			result.failure = fmt.Errorf("%w: %s", entity.ErrPaymentVerificationFailed, reason)
			events = append(events, entity.TopicPaymentFailed)
			return nil

		default:
			result.failure = fmt.Errorf("%w: gateway status %q", entity.ErrPaymentVerificationFailed, oc.status)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		s.log.Info("payment reconciled", logging.Fields{
			OrderID: result.payment.OrderID, PaymentID: result.payment.ID, Reference: oc.reference,
			Status: string(result.payment.Status), Step: events[0],
		})
	}
	return result, nil
}

func (s *PaymentService) markFailed(ctx context.Context, repos repository.Repositories, payment *entity.Payment, order *entity.Order, reason string) error {
	if err := payment.MarkAsFailed(reason); err != nil {
		return err
	}
	if err := repos.Payments.Update(ctx, payment); err != nil {
		return err
	}
	if !order.IsPaid() {
		order.MarkPaymentFailed()
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
	}
	evt, err := paymentEvent(entity.TopicPaymentFailed, payment, reason)
	if err != nil {
		return err
	}
	return repos.Events.Append(ctx, evt)
}

// Refund reserves the amount on the payment, asks the gateway to refund, then
// settles the reservation. Concurrent refunds see each other's reservations,
// so the gateway is never asked for more than the refundable balance. A
// refund that would fully refund the payment is refused up front when the
// order cannot move to refunded.
func (s *PaymentService) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	var (
		payment *entity.Payment
		amount  entity.Money
	)
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Payments.FindByID(ctx, input.PaymentID)
		if err != nil {
			return err
		}
		order, err := repos.Orders.FindByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if !input.Staff && !order.BelongsTo(input.UserID) {
			return fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, input.PaymentID)
		}
		if amount, err = entity.NewMoney(input.Amount, p.Amount.Currency()); err != nil {
			return err
		}
		balance, err := p.RefundableBalance()
		if err != nil {
			return err
		}
		if err := p.ReserveRefund(amount); err != nil {
			return err
		}
		if amount.Equals(balance) && !order.CanBeRefunded() {
			return &entity.InvalidTransitionError{From: order.Status, Action: "refund"}
		}
		payment = p
		return repos.Payments.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.Refund(ctx, gateway.RefundRequest{
		TransactionID: payment.TransactionID,
		Reference:     payment.Reference(),
		Amount:        amount,
		Reason:        input.Reason,
	})
	if err != nil {
		s.releaseRefund(ctx, payment, amount)
		if !errors.Is(err, apperror.ErrGateway) {
			err = fmt.Errorf("%w: %v", apperror.ErrGateway, err)
		}
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	var updated *entity.Payment
	err = s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Payments.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if err := p.ProcessReservedRefund(amount); err != nil {
			return err
		}
		if err := repos.Payments.Update(ctx, p); err != nil {
			return err
		}
		events := make([]*entity.OutboxEvent, 0, 2)
		evt, err := paymentEvent(entity.TopicPaymentRefunded, p, input.Reason)
		if err != nil {
			return err
		}
		events = append(events, evt)
		if p.IsFullyRefunded() {
			o, err := repos.Orders.FindByID(ctx, p.OrderID)
			if err != nil {
				return err
			}
			previous := o.Status
			if err := o.Refund(); err != nil {
				return err
			}
			if err := repos.Orders.Update(ctx, o); err != nil {
				return err
			}
			if evt, err = orderEvent(entity.TopicOrderStatusChanged, o, previous); err != nil {
				return err
			}
			events = append(events, evt)
		}
		updated = p
		return repos.Events.Append(ctx, events...)
	})
	if err != nil {
		// The gateway has already moved the money and the reservation stays held.
		s.log.Error("refund accepted by gateway but not recorded", logging.Fields{
			PaymentID: payment.ID, OrderID: payment.OrderID, Reference: payment.Reference(), Error: err.Error(), Step: "payment.refund",
		})
		return nil, err
	}

	s.log.Info("payment refunded", logging.Fields{
		PaymentID: updated.ID, OrderID: updated.OrderID, Status: string(updated.Status), Step: "payment.refund",
	})
	return &RefundResult{Payment: updated, RefundID: res.RefundID, Amount: amount, Status: res.Status}, nil
}

// releaseRefund returns a reservation to the balance after the gateway
// refused the refund.
func (s *PaymentService) releaseRefund(ctx context.Context, payment *entity.Payment, amount entity.Money) {
	err := s.store.Do(context.WithoutCancel(ctx), func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Payments.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if err := p.ReleaseRefund(amount); err != nil {
			return err
		}
		return repos.Payments.Update(ctx, p)
	})
	if err != nil {
		s.log.Error("refund reservation could not be released: "+err.Error(), logging.Fields{
			PaymentID: payment.ID, OrderID: payment.OrderID, Reference: payment.Reference(), Step: "payment.refund",
		})
	}
}

func (s *PaymentService) Get(ctx context.Context, userID, paymentID string) (*entity.Payment, error) {
	repos := s.store.Repositories()
	payment, err := repos.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedOrder(ctx, repos, userID, payment.OrderID); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, paymentID)
	}
	return payment, nil
}

func (s *PaymentService) ListByOrder(ctx context.Context, userID, orderID string) ([]*entity.Payment, error) {
	repos := s.store.Repositories()
	if _, err := ownedOrder(ctx, repos, userID, orderID); err != nil {
		return nil, err
	}
	return repos.Payments.ListByOrderID(ctx, orderID)
}
