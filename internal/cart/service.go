package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
)

// maxLineQuantity caps a single cart line so a typo cannot reserve a
// vendor's whole inventory at checkout.
const maxLineQuantity = 10000

// Item is one product line in a customer's cart.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Cart is the customer's current product selection.
type Cart struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Items      []Item    `json:"items"`
}

// store is the subset of the redis client the cart needs.
type store interface {
	CartKey(customerID string) string
	HSet(ctx context.Context, key string, pairs ...any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Service keeps per-customer carts in Redis, keyed productID -> quantity.
type Service interface {
	SetItem(ctx context.Context, customerID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error
	Get(ctx context.Context, customerID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	store store
	ttl   time.Duration
}

// NewService wires a cart service backed by the provided store. Carts
// expire after ttl of inactivity.
func NewService(st store, ttl time.Duration) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &service{store: st, ttl: ttl}, nil
}

// SetItem writes the quantity for a product line. Quantity zero removes
// the line.
func (s *service) SetItem(ctx context.Context, customerID, productID uuid.UUID, qty int) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty < 0 || qty > maxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, customerID, productID)
	}

	key := s.store.CartKey(customerID.String())
	if err := s.store.HSet(ctx, key, productID.String(), strconv.Itoa(qty)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart line")
	}
	if err := s.store.Expire(ctx, key, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh cart ttl")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	key := s.store.CartKey(customerID.String())
	if err := s.store.HDel(ctx, key, productID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	key := s.store.CartKey(customerID.String())
	fields, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart := &Cart{CustomerID: customerID, Items: make([]Item, 0, len(fields))}
	for field, value := range fields {
		productID, err := uuid.Parse(field)
		if err != nil {
			// skip corrupt lines rather than failing the whole cart
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		cart.Items = append(cart.Items, Item{ProductID: productID, Quantity: qty})
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID.String() < cart.Items[j].ProductID.String()
	})
	return cart, nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := s.store.Del(ctx, s.store.CartKey(customerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
