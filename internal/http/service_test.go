package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/desantiago/gallery-shop/internal/config"
	httpsvc "github.com/desantiago/gallery-shop/internal/http"
	"github.com/desantiago/gallery-shop/internal/model"
	"github.com/desantiago/gallery-shop/internal/payment"
	"github.com/desantiago/gallery-shop/internal/repository"
	"github.com/desantiago/gallery-shop/internal/service"
	"github.com/desantiago/gallery-shop/internal/storage/db"
	"github.com/desantiago/gallery-shop/pkg/validator"
)

const testWebhookSecret = "whsec_http_test"

type fakeDB struct{ db.DB }

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error { return txFunc(f) }

type memProductRepository struct {
	mu       *sync.Mutex
	products map[uuid.UUID]model.Product
	failList bool
}

func (r *memProductRepository) WithDB(db.DB) repository.ProductRepository { return r }

func (r *memProductRepository) CreateProduct(_ context.Context, p model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return p, nil
}

func (r *memProductRepository) ListAllProducts(context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errors.New("connection reset by peer")
	}
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepository) GetProductByID(_ context.Context, id uuid.UUID) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepository) GetProductByIDForUpdate(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r *memProductRepository) MarkProductSold(_ context.Context, params repository.MarkProductSoldParams) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[params.ID]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	p.Sold = true
	p.UpdatedAt = params.UpdatedAt
	r.products[params.ID] = p
	return p, nil
}

type nopOutboxMsgRepository struct {
	repository.OutboxMsgRepository
}

func (r nopOutboxMsgRepository) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (nopOutboxMsgRepository) CreateOutboxMsg(context.Context, repository.CreateOutboxMsgParams) error {
	return nil
}

type stubGateway struct {
	payment.Gateway
	session payment.CheckoutSession
	err     error
}

func (g stubGateway) CreateCheckoutSession(context.Context) (payment.CheckoutSession, error) {
	return g.session, g.err
}

// signingGateway verifies real provider signatures but never creates sessions.
type signingGateway struct {
	*payment.StripeGateway
	stubGateway
}

func (g signingGateway) CreateCheckoutSession(ctx context.Context) (payment.CheckoutSession, error) {
	return g.stubGateway.CreateCheckoutSession(ctx)
}

func (g signingGateway) ConstructEvent(payload []byte, signature string) (payment.Event, error) {
	return g.StripeGateway.ConstructEvent(payload, signature)
}

type healthChecker struct{ err error }

func (h healthChecker) IsHealthy(context.Context) (bool, error) { return h.err == nil, h.err }

type testApp struct {
	router   chi.Router
	products *memProductRepository
}

func newTestApp(t *testing.T, gw stubGateway) testApp {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	products := &memProductRepository{mu: &sync.Mutex{}, products: map[uuid.UUID]model.Product{}}

	productSvc := service.NewProductService(fakeDB{}, v, products, nopOutboxMsgRepository{})
	stripeGateway := payment.NewStripeGateway(
		config.Stripe{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret},
		config.Checkout{},
	)
	paymentSvc := service.NewPaymentService(logger, signingGateway{StripeGateway: stripeGateway, stubGateway: gw})

	svc := httpsvc.New(config.HTTP{
		Swagger:        true,
		AllowedOrigins: []string{"http://localhost:4200"},
	}, logger, productSvc, paymentSvc, healthChecker{})

	return testApp{router: svc.Router(), products: products}
}

func (a testApp) do(t *testing.T, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	a.router.ServeHTTP(resp, req)
	return resp
}

type productBody struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Sold  bool     `json:"sold"`
	Img   *string  `json:"img"`
	Wgt   *float64 `json:"weight"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func TestProductRoutes(t *testing.T) {
	app := newTestApp(t, stubGateway{})

	var created productBody

	t.Run("POST /products creates an unsold product", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/products", `{"name":"Vase","price":50}`, nil)

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		assert.Contains(t, resp.Header().Get("Content-Type"), "application/json")

		created = decode[productBody](t, resp)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Vase", created.Name)
		assert.Equal(t, 50.0, created.Price)
		assert.False(t, created.Sold)
	})

	t.Run("POST /products ignores a client supplied sold flag", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/products", `{"name":"Bowl","price":10,"sold":true,"img":"https://cdn.example/bowl.jpg","weight":1.5}`, nil)

		require.Equal(t, http.StatusCreated, resp.Code)
		body := decode[productBody](t, resp)
		assert.False(t, body.Sold)
		require.NotNil(t, body.Img)
		assert.Equal(t, "https://cdn.example/bowl.jpg", *body.Img)
		require.NotNil(t, body.Wgt)
		assert.Equal(t, 1.5, *body.Wgt)
	})

	t.Run("POST /products rejects missing fields without persisting", func(t *testing.T) {
		before := len(app.products.products)

		resp := app.do(t, http.MethodPost, "/products", `{"technique":"oil"}`, nil)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		res := decode[struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
			} `json:"details"`
		}](t, resp)
		assert.Equal(t, "validationError", res.Code)

		fields := []string{}
		for _, d := range res.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "price"}, fields)
		assert.Len(t, app.products.products, before)
	})

	t.Run("POST /products rejects a negative price", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/products", `{"name":"Vase","price":-1}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("POST /products rejects malformed JSON", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/products", `{"name":`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("GET /products/{id} returns the created product", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/products/"+created.ID, "", nil)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, created, decode[productBody](t, resp))
	})

	t.Run("GET /products/{id} returns 404 for an unknown id", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/products/"+uuid.NewString(), "", nil)

		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", decode[map[string]any](t, resp)["code"])
	})

	t.Run("GET /products/{id} returns 400 for a malformed id", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/products/not-a-uuid", "", nil)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "INVALID_PRODUCT_ID", decode[map[string]any](t, resp)["code"])
	})

	t.Run("GET /products lists every product", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/products", "", nil)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, decode[[]productBody](t, resp), 2)
	})

	t.Run("PATCH /products/{id}/sell is idempotent", func(t *testing.T) {
		for range 2 {
			resp := app.do(t, http.MethodPatch, "/products/"+created.ID+"/sell", "", nil)

			require.Equal(t, http.StatusOK, resp.Code)
			body := decode[productBody](t, resp)
			assert.True(t, body.Sold)
			assert.Equal(t, created.ID, body.ID)
		}
	})

	t.Run("PATCH /products/{id}/sell returns 404 for an unknown id", func(t *testing.T) {
		resp := app.do(t, http.MethodPatch, "/products/"+uuid.NewString()+"/sell", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestListProductsStorageFailure(t *testing.T) {
	app := newTestApp(t, stubGateway{})
	app.products.failList = true

	resp := app.do(t, http.MethodGet, "/products", "", nil)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internalServerError", decode[map[string]any](t, resp)["code"])
}

func TestCheckoutSessionRoute(t *testing.T) {
	t.Run("Should return the provider redirect url", func(t *testing.T) {
		app := newTestApp(t, stubGateway{session: payment.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}})

		resp := app.do(t, http.MethodPost, "/create-checkout-session", "", nil)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/pay/cs_1"}`, resp.Body.String())
	})

	t.Run("Should answer 500 on provider failure", func(t *testing.T) {
		app := newTestApp(t, stubGateway{err: errors.New("Invalid API Key provided")})

		resp := app.do(t, http.MethodPost, "/create-checkout-session", "", nil)

		require.Equal(t, http.StatusInternalServerError, resp.Code)
		res := decode[map[string]any](t, resp)
		assert.Equal(t, "PAYMENT_PROVIDER_FAILED", res["code"])
		assert.Contains(t, res["message"], "Invalid API Key provided")
	})
}

func TestWebhookRoute(t *testing.T) {
	app := newTestApp(t, stubGateway{})

	signedHeader := func(payload []byte, secret string) string {
		return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   payload,
			Secret:    secret,
			Timestamp: time.Now(),
		}).Header
	}

	completed := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`)

	t.Run("Should acknowledge a verified checkout completion", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/webhook", string(completed), map[string]string{
			payment.SignatureHeader: signedHeader(completed, testWebhookSecret),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"received":true}`, resp.Body.String())
	})

	t.Run("Should acknowledge a verified event of an unhandled type", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
		resp := app.do(t, http.MethodPost, "/webhook", string(payload), map[string]string{
			payment.SignatureHeader: signedHeader(payload, testWebhookSecret),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"received":true}`, resp.Body.String())
	})

	t.Run("Should reject a tampered body", func(t *testing.T) {
		header := signedHeader(completed, testWebhookSecret)
		tampered := bytes.Replace(completed, []byte("cs_test_1"), []byte("cs_test_2"), 1)

		resp := app.do(t, http.MethodPost, "/webhook", string(tampered), map[string]string{
			payment.SignatureHeader: header,
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		res := decode[map[string]any](t, resp)
		assert.Equal(t, "WEBHOOK_SIGNATURE_INVALID", res["code"])
		assert.Contains(t, res["message"], "webhook error: ")
	})

	t.Run("Should reject a re-serialized body", func(t *testing.T) {
		header := signedHeader(completed, testWebhookSecret)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(completed, &parsed))
		reencoded, err := json.MarshalIndent(parsed, "", "  ")
		require.NoError(t, err)

		resp := app.do(t, http.MethodPost, "/webhook", string(reencoded), map[string]string{
			payment.SignatureHeader: header,
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should reject a wrong secret and a missing header", func(t *testing.T) {
		resp := app.do(t, http.MethodPost, "/webhook", string(completed), map[string]string{
			payment.SignatureHeader: signedHeader(completed, "whsec_wrong"),
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = app.do(t, http.MethodPost, "/webhook", string(completed), nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestCors(t *testing.T) {
	app := newTestApp(t, stubGateway{})

	preflight := func(origin, method string) *httptest.ResponseRecorder {
		return app.do(t, http.MethodOptions, "/products", "", map[string]string{
			"Origin":                        origin,
			"Access-Control-Request-Method": method,
		})
	}

	t.Run("Should allow listed origins with credentials", func(t *testing.T) {
		resp := preflight("http://localhost:4200", http.MethodPatch)

		assert.Equal(t, "http://localhost:4200", resp.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})

	t.Run("Should not allow unlisted origins", func(t *testing.T) {
		resp := preflight("https://evil.example", http.MethodGet)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should not allow unlisted methods", func(t *testing.T) {
		resp := preflight("http://localhost:4200", http.MethodPut)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t, stubGateway{})

	t.Run("GET /healthz", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
	})

	t.Run("GET /metrics exposes request counters", func(t *testing.T) {
		app.do(t, http.MethodGet, "/products", "", nil)

		resp := app.do(t, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "gallery_http_requests_total")
		assert.Contains(t, resp.Body.String(), `route="/products"`)
	})

	t.Run("GET /docs", func(t *testing.T) {
		resp := app.do(t, http.MethodGet, "/docs", "", nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}
