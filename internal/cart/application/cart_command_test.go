package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
)

type stubCartRepo struct {
	carts   map[string]*domain.Cart
	findErr error
	saveErr error
	calls   *[]string
}

func (s *stubCartRepo) FindByID(_ context.Context, sessionID string) (*domain.Cart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.carts[sessionID], nil
}

func (s *stubCartRepo) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "save")
	}
	if s.carts == nil {
		s.carts = map[string]*domain.Cart{}
	}
	s.carts[cart.ID] = cart
	return cart, nil
}

type stubLookup struct {
	prices map[string]decimal.Decimal
	err    error
}

func (s *stubLookup) FindByID(_ context.Context, productID string) (*domain.ProductInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.prices[productID]
	if !ok {
		return nil, nil
	}
	return &domain.ProductInfo{ID: productID, Price: p}, nil
}

type stubPublisher struct {
	events []domain.CartUpdateEvent
	err    error
	calls  *[]string
}

func (s *stubPublisher) PublishCartUpdate(_ context.Context, event domain.CartUpdateEvent) error {
	if s.err != nil {
		return s.err
	}
	if s.calls != nil {
		*s.calls = append(*s.calls, "publish")
	}
	s.events = append(s.events, event)
	return nil
}

func newTestService(repo *stubCartRepo, lookup *stubLookup, pub *stubPublisher) *CartCommandService {
	return NewCartCommandService(repo, lookup, pub, nil, nil)
}

func TestAddToCart_NewCart(t *testing.T) {
	repo := &stubCartRepo{}
	lookup := &stubLookup{prices: map[string]decimal.Decimal{"p-1": decimal.RequireFromString("19.99")}}
	pub := &stubPublisher{}
	svc := newTestService(repo, lookup, pub)

	cart, err := svc.AddToCart(context.Background(), AddToCartCommand{
		SessionID: "sess-1", ProductID: "p-1", Quantity: 2,
	})

	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "sess-1", cart.ID)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("39.98")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "sess-1", pub.events[0].SessionID)
	assert.Same(t, repo.carts["sess-1"], pub.events[0].Cart)
}

func TestAddToCart_MergeSnapshotPrice(t *testing.T) {
	repo := &stubCartRepo{}
	lookup := &stubLookup{prices: map[string]decimal.Decimal{"p-1": decimal.RequireFromString("19.99")}}
	pub := &stubPublisher{}
	svc := newTestService(repo, lookup, pub)

	_, err := svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "p-1", Quantity: 1})
	require.NoError(t, err)

	// 加购后目录价格变化不影响已有行
	lookup.prices["p-1"] = decimal.RequireFromString("30.00")
	cart, err := svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "p-1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].PriceAtAdd.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("59.97")))
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	repo := &stubCartRepo{}
	pub := &stubPublisher{}
	svc := newTestService(repo, &stubLookup{}, pub)

	cart, err := svc.AddToCart(context.Background(), AddToCartCommand{
		SessionID: "sess-1", ProductID: "p-missing", Quantity: 1,
	})

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Nil(t, cart)
	assert.Empty(t, repo.carts)
	assert.Empty(t, pub.events)
}

func TestAddToCart_InvalidInput(t *testing.T) {
	svc := newTestService(&stubCartRepo{}, &stubLookup{}, &stubPublisher{})

	_, err := svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "", ProductID: "p-1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, err = svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "p-1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddToCart_SavesBeforePublishing(t *testing.T) {
	var calls []string
	repo := &stubCartRepo{calls: &calls}
	lookup := &stubLookup{prices: map[string]decimal.Decimal{"p-1": decimal.RequireFromString("1.00")}}
	pub := &stubPublisher{calls: &calls}
	svc := newTestService(repo, lookup, pub)

	_, err := svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "p-1", Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"save", "publish"}, calls)
}

func TestAddToCart_PublishFailureReturnsSavedCart(t *testing.T) {
	repo := &stubCartRepo{}
	lookup := &stubLookup{prices: map[string]decimal.Decimal{"p-1": decimal.RequireFromString("1.00")}}
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := newTestService(repo, lookup, pub)

	cart, err := svc.AddToCart(context.Background(), AddToCartCommand{SessionID: "sess-1", ProductID: "p-1", Quantity: 1})

	require.Error(t, err)
	require.NotNil(t, cart, "cart is persisted even when publish fails")
	assert.NotNil(t, repo.carts["sess-1"])
}

func TestRemoveFromCart_MissingLineIsNoop(t *testing.T) {
	existing := domain.NewCart("sess-1")
	require.NoError(t, existing.AddItem("p-1", 2, decimal.RequireFromString("5.00")))
	existing.RecomputeTotal()

	var calls []string
	repo := &stubCartRepo{carts: map[string]*domain.Cart{"sess-1": existing}, calls: &calls}
	pub := &stubPublisher{calls: &calls}
	svc := newTestService(repo, &stubLookup{}, pub)

	cart, err := svc.RemoveFromCart(context.Background(), RemoveFromCartCommand{
		SessionID: "sess-1", ProductID: "p-other",
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Empty(t, calls, "no save and no publish for a missing line")
}

func TestRemoveFromCart_WholeLineWhenQuantityOmitted(t *testing.T) {
	existing := domain.NewCart("sess-1")
	require.NoError(t, existing.AddItem("p-1", 5, decimal.RequireFromString("2.00")))
	existing.RecomputeTotal()

	repo := &stubCartRepo{carts: map[string]*domain.Cart{"sess-1": existing}}
	pub := &stubPublisher{}
	svc := newTestService(repo, &stubLookup{}, pub)

	cart, err := svc.RemoveFromCart(context.Background(), RemoveFromCartCommand{
		SessionID: "sess-1", ProductID: "p-1", Quantity: nil,
	})

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
	require.Len(t, pub.events, 1)
}

func TestRemoveFromCart_Decrement(t *testing.T) {
	existing := domain.NewCart("sess-1")
	require.NoError(t, existing.AddItem("p-1", 5, decimal.RequireFromString("2.00")))
	existing.RecomputeTotal()

	repo := &stubCartRepo{carts: map[string]*domain.Cart{"sess-1": existing}}
	pub := &stubPublisher{}
	svc := newTestService(repo, &stubLookup{}, pub)

	qty := int64(2)
	cart, err := svc.RemoveFromCart(context.Background(), RemoveFromCartCommand{
		SessionID: "sess-1", ProductID: "p-1", Quantity: &qty,
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)
	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("6.00")))
}

func TestRemoveFromCart_RepoError(t *testing.T) {
	repo := &stubCartRepo{findErr: errors.New("mongo down")}
	svc := newTestService(repo, &stubLookup{}, &stubPublisher{})

	cart, err := svc.RemoveFromCart(context.Background(), RemoveFromCartCommand{
		SessionID: "sess-1", ProductID: "p-1",
	})

	require.Error(t, err)
	assert.Nil(t, cart)
}
