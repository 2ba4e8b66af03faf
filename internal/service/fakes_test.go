package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/payment"
	"github.com/desantiago/gallery-shop/internal/repository"
	"github.com/desantiago/gallery-shop/internal/storage/db"
)

// fakeDB runs WithTx callbacks against itself. Writes staged in store by a
// tx-scoped repository become visible only on commit; beforeCommit runs
// between the callback returning and that point.
type fakeDB struct {
	db.DB
	store        *fakeStore
	beforeCommit func()
	commits      int
	rollbacks    int
}

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	if err := txFunc(f); err != nil {
		f.rollbacks++
		f.store.discard()
		return err
	}
	if f.beforeCommit != nil {
		f.beforeCommit()
	}
	f.store.commit()
	f.commits++
	return nil
}

// fakeStore backs both repositories so a rolled back write can be asserted.
type fakeStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]model.Product
	outbox    []repository.CreateOutboxMsgParams
	staged    map[uuid.UUID]model.Product
	createErr error
	outboxErr error

	// stored rewrites a product the way the database would on insert.
	stored func(model.Product) model.Product
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[uuid.UUID]model.Product{},
		staged:   map[uuid.UUID]model.Product{},
	}
}

func (s *fakeStore) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.staged {
		s.products[id] = p
	}
	clear(s.staged)
}

func (s *fakeStore) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.staged)
}

type fakeProductRepository struct {
	store *fakeStore
	inTx  bool
}

func (r fakeProductRepository) WithDB(d db.DB) repository.ProductRepository {
	return fakeProductRepository{store: r.store, inTx: d != nil}
}

func (r fakeProductRepository) CreateProduct(_ context.Context, product model.Product) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.createErr != nil {
		return model.Product{}, r.store.createErr
	}
	if r.store.stored != nil {
		product = r.store.stored(product)
	}
	if r.inTx {
		r.store.staged[product.ID] = product
	} else {
		r.store.products[product.ID] = product
	}
	return product, nil
}

func (r fakeProductRepository) ListAllProducts(context.Context) ([]model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	products := make([]model.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		products = append(products, p)
	}
	return products, nil
}

func (r fakeProductRepository) GetProductByID(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r fakeProductRepository) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r fakeProductRepository) MarkProductSold(_ context.Context, params repository.MarkProductSoldParams) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[params.ID]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	p.Sold = true
	p.UpdatedAt = params.UpdatedAt
	if r.inTx {
		r.store.staged[params.ID] = p
	} else {
		r.store.products[params.ID] = p
	}
	return p, nil
}

// memCache is an in-process stand-in for the Redis product cache.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type fakeOutboxMsgRepository struct {
	repository.OutboxMsgRepository
	store *fakeStore
}

func (r fakeOutboxMsgRepository) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r fakeOutboxMsgRepository) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.outboxErr != nil {
		return r.store.outboxErr
	}
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

type fakeGateway struct {
	session   payment.CheckoutSession
	createErr error
	event     payment.Event
	verifyErr error

	gotPayload   []byte
	gotSignature string
}

func (g *fakeGateway) CreateCheckoutSession(context.Context) (payment.CheckoutSession, error) {
	return g.session, g.createErr
}

func (g *fakeGateway) ConstructEvent(payload []byte, signature string) (payment.Event, error) {
	g.gotPayload = payload
	g.gotSignature = signature
	if g.verifyErr != nil {
		return payment.Event{}, g.verifyErr
	}
	return g.event, nil
}

var errSignature = errors.New("no signatures found matching the expected signature for payload")

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }
