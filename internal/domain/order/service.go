package order

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyBag               = errors.New("bag is empty")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrMessagingNotConfigured = errors.New("whatsapp ordering is not configured")
)

// ProductNotFoundError indicates a bag line whose product left the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidAddressError lists the blank required address fields.
type InvalidAddressError struct {
	Fields []string
}

func (e *InvalidAddressError) Error() string {
	return "delivery address is incomplete: " + strings.Join(e.Fields, ", ")
}

// Handoff is the pre-filled message that passes an order to the store.
type Handoff struct {
	Message string
	AppURL  string
	WebURL  string
}

// Messenger composes the order handoff message.
type Messenger interface {
	Handoff(o *Order) Handoff
}

// Config holds checkout pricing settings.
type Config struct {
	DeliveryFee decimal.Decimal
	Currency    string
}

// Deps are the collaborators of Service. Payments and Messenger are optional.
type Deps struct {
	Bags          bag.Repository
	Products      product.Repository
	Coupons       coupon.Validator
	Orders        Repository
	Payments      payment.Gateway
	Messenger     Messenger
	MeterProvider metric.MeterProvider
}

// Summary is the checkout screen breakdown of a bag.
type Summary struct {
	Lines       []Line
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    *coupon.Discount
	Total       decimal.Decimal
	Currency    string
}

// PlaceOrderRequest holds the checkout form.
type PlaceOrderRequest struct {
	PaymentMethod PaymentMethod
	CouponCode    string
	Address       Address
}

// PlaceOrderResult is a placed order plus the WhatsApp handoff when that
// payment method was chosen.
type PlaceOrderResult struct {
	Order   *Order
	Handoff *Handoff
}

// Service implements checkout and order history.
type Service struct {
	cfg  Config
	deps Deps
	now  func() time.Time

	placed  metric.Int64Counter
	revenue metric.Float64Counter
}

// NewService creates an order Service.
func NewService(cfg Config, deps Deps) (*Service, error) {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	mp := deps.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter("storefront/order")

	placed, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	revenue, err := meter.Float64Counter("storefront.orders.revenue",
		metric.WithDescription("Order totals"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}

	return &Service{
		cfg:     cfg,
		deps:    deps,
		now:     time.Now,
		placed:  placed,
		revenue: revenue,
	}, nil
}

// Summary prices the owner's bag. An empty bag has no delivery fee.
// A non-empty couponCode is quoted without consuming a use.
func (s *Service) Summary(ctx context.Context, owner, couponCode string) (*Summary, error) {
	b, err := s.deps.Bags.Get(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get bag")
	}
	if len(b.Lines) == 0 {
		return &Summary{Currency: s.cfg.Currency}, nil
	}
	return s.price(ctx, b, couponCode, s.deps.Coupons.Quote)
}

// PlaceOrder turns the owner's bag into an order and clears the bag.
//
// Prices are re-read from the catalog. The whole operation holds the owner's
// bag lock, so concurrent bag edits wait for it.
func (s *Service) PlaceOrder(ctx context.Context, owner string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if missing := req.Address.Missing(); len(missing) > 0 {
		return nil, &InvalidAddressError{Fields: missing}
	}
	switch req.PaymentMethod {
	case PaymentOnline:
		if s.deps.Payments == nil {
			return nil, payment.ErrUnavailable
		}
	case PaymentWhatsApp:
		if s.deps.Messenger == nil {
			return nil, ErrMessagingNotConfigured
		}
	}

	var (
		o        *Order
		redeemed string
		created  bool
	)
	if _, err := s.deps.Bags.Update(ctx, owner, func(b *bag.Bag) error {
		if len(b.Lines) == 0 {
			return ErrEmptyBag
		}
		sum, err := s.price(ctx, b, req.CouponCode, s.deps.Coupons.Redeem)
		if err != nil {
			return err
		}
		if sum.Discount != nil {
			redeemed = sum.Discount.Code
		}

		o = s.newOrder(owner, req, sum)
		if req.PaymentMethod == PaymentOnline {
			ref, err := s.deps.Payments.Charge(ctx, payment.Charge{
				OrderID:  o.ID,
				Owner:    owner,
				Amount:   o.Total,
				Currency: o.Currency,
			})
			if err != nil {
				return errors.Wrap(err, "charge")
			}
			o.PaymentRef = ref
		}

		if err := s.deps.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		created = true
		b.Clear()
		return nil
	}); err != nil {
		if redeemed != "" && !created {
			s.releaseCoupon(ctx, redeemed)
		}
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("payment_method", string(o.PaymentMethod)))
	s.placed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, o.Total.InexactFloat64(), attrs)

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("number", o.Number),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.Stringer("total", o.Total),
	)

	res := &PlaceOrderResult{Order: o}
	if req.PaymentMethod == PaymentWhatsApp {
		h := s.deps.Messenger.Handoff(o)
		res.Handoff = &h
	}
	return res, nil
}

// ListOrders returns the owner's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, owner string, status Status) ([]Order, error) {
	orders, err := s.deps.Orders.ListByOwner(ctx, owner, status)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

// releaseCoupon gives back a use redeemed for an order that was never
// created.
func (s *Service) releaseCoupon(ctx context.Context, code string) {
	if err := s.deps.Coupons.Release(context.WithoutCancel(ctx), code); err != nil {
		zctx.From(ctx).Error("Release coupon use",
			zap.String("coupon", code),
			zap.Error(err),
		)
	}
}

type couponFunc func(ctx context.Context, code string, items []coupon.Item) (*coupon.Discount, error)

func (s *Service) price(ctx context.Context, b *bag.Bag, couponCode string, applyCoupon couponFunc) (*Summary, error) {
	ids := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		ids[i] = l.Product.ID
	}
	fetched, err := s.deps.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	sum := &Summary{
		Lines:       make([]Line, 0, len(b.Lines)),
		Subtotal:    decimal.Zero,
		DeliveryFee: s.cfg.DeliveryFee,
		Currency:    s.cfg.Currency,
	}
	items := make([]coupon.Item, 0, len(b.Lines))
	for _, l := range b.Lines {
		p, ok := byID[l.Product.ID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.Product.ID}
		}
		line := Line{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  l.Quantity,
		}
		sum.Lines = append(sum.Lines, line)
		sum.Subtotal = sum.Subtotal.Add(line.Total())
		items = append(items, coupon.Item{ProductID: p.ID, Price: p.Price, Quantity: l.Quantity})
		if p.Currency != "" {
			sum.Currency = p.Currency
		}
	}

	goods := sum.Subtotal
	if strings.TrimSpace(couponCode) != "" {
		d, err := applyCoupon(ctx, couponCode, items)
		if err != nil {
			return nil, errors.Wrap(err, "apply coupon")
		}
		sum.Discount = d
		goods = goods.Sub(d.Amount)
	}
	if goods.IsNegative() {
		goods = decimal.Zero
	}
	sum.Total = goods.Add(sum.DeliveryFee).Round(2)
	return sum, nil
}

func (s *Service) newOrder(owner string, req PlaceOrderRequest, sum *Summary) *Order {
	id := uuid.New()
	o := &Order{
		ID:             id.String(),
		Number:         fmt.Sprintf("%07d", binary.BigEndian.Uint32(id[0:4])%10_000_000),
		TrackingNumber: fmt.Sprintf("IW%010d", binary.BigEndian.Uint64(id[8:16])%10_000_000_000),
		Owner:          owner,
		Lines:          sum.Lines,
		Subtotal:       sum.Subtotal,
		DeliveryFee:    sum.DeliveryFee,
		Discount:       decimal.Zero,
		Total:          sum.Total,
		Currency:       sum.Currency,
		PaymentMethod:  req.PaymentMethod,
		Status:         StatusProcessing,
		Address:        req.Address,
		CreatedAt:      s.now().UTC(),
	}
	if sum.Discount != nil {
		o.Discount = sum.Discount.Amount
		o.CouponCode = sum.Discount.Code
	}
	return o
}
