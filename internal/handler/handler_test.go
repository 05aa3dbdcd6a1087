package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/storage/memory"
)

// --- Mock implementations ---

// failingProducts fails every operation with err.
type failingProducts struct {
	err error
}

func (f failingProducts) Create(context.Context, product.CreateRequest) (product.Product, error) {
	return product.Product{}, f.err
}

func (f failingProducts) GetByID(context.Context, string) (product.Product, bool, error) {
	return product.Product{}, false, f.err
}

func (f failingProducts) GetAll(context.Context) ([]product.Product, error) {
	return nil, f.err
}

func (f failingProducts) Update(context.Context, string, product.UpdateRequest) (product.Product, bool, error) {
	return product.Product{}, false, f.err
}

func (f failingProducts) Delete(context.Context, string) (bool, error) {
	return false, f.err
}

// --- Helpers ---

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type productBody struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Available   bool        `json:"available"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

func newTestHandler(t *testing.T, products Products) *Handler {
	t.Helper()
	h, err := New(products)
	require.NoError(t, err)
	return h
}

func testContext(t *testing.T) context.Context {
	return zctx.Base(context.Background(), zaptest.NewLogger(t))
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func decodeProduct(t *testing.T, env envelope) productBody {
	t.Helper()
	var p productBody
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func requireFailure(t *testing.T, resp Response, status int, code, message string) {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.False(t, env.Success)
	assert.Equal(t, code, env.Error)
	if message != "" {
		assert.Equal(t, message, env.Message)
	}
}

const espressoJSON = `{"name":"Espresso","description":"Strong coffee","price":3.50,"category":"espresso"}`

// --- Tests ---

func TestCreateProduct(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	resp := h.CreateProduct(ctx, []byte(espressoJSON))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decode(t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, "Product created successfully", env.Message)
	assert.Empty(t, env.Error)

	p := decodeProduct(t, env)
	assert.Regexp(t, `^product_\d+_[0-9a-z]{9}$`, p.ID)
	assert.Equal(t, "Espresso", p.Name)
	assert.Equal(t, "3.5", p.Price.String())
	assert.Equal(t, "espresso", p.Category)
	assert.True(t, p.Available)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, p.CreatedAt)
}

func TestCreateProduct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		code    string
		message string
	}{
		{name: "no body", body: "", status: 400, code: CodeBadRequest, message: "Request body is required"},
		{name: "invalid json", body: "invalid json", status: 400, code: CodeInvalidJSON, message: "Invalid JSON in request body"},
		{name: "empty object", body: "{}", status: 400, code: CodeValidation, message: "Request body is required"},
		{name: "null", body: "null", status: 400, code: CodeValidation, message: "Request body is required"},
		{name: "missing name", body: `{"description":"d","price":1,"category":"tea"}`, status: 400, code: CodeValidation, message: "Name is required and must be a string"},
		{name: "negative price", body: `{"name":"n","description":"d","price":-1,"category":"tea"}`, status: 400, code: CodeValidation},
		{name: "bad category", body: `{"name":"n","description":"d","price":1,"category":"soup"}`, status: 400, code: CodeValidation},
	}

	h := newTestHandler(t, product.NewService(memory.New()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.CreateProduct(testContext(t), []byte(tt.body))
			requireFailure(t, resp, tt.status, tt.code, tt.message)
		})
	}
}

func TestGetProduct(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	created := decodeProduct(t, decode(t, h.CreateProduct(ctx, []byte(espressoJSON)).Body))

	resp := h.GetProduct(ctx, created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.Equal(t, "Product retrieved successfully", env.Message)
	assert.Equal(t, created, decodeProduct(t, env))

	requireFailure(t, h.GetProduct(ctx, "product_1_missing"), 404, CodeNotFound, "Product not found")
	requireFailure(t, h.GetProduct(ctx, ""), 400, CodeBadRequest, "Product ID is required")
	requireFailure(t, h.GetProduct(ctx, "   "), 400, CodeValidation, "Product ID is required and must be a non-empty string")
}

func TestListProducts(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	resp := h.ListProducts(ctx)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.Equal(t, "Retrieved 0 products successfully", env.Message)
	assert.JSONEq(t, `[]`, string(env.Data))

	h.CreateProduct(ctx, []byte(espressoJSON))
	h.CreateProduct(ctx, []byte(`{"name":"Chai","description":"Spiced","price":3,"category":"tea"}`))

	env = decode(t, h.ListProducts(ctx).Body)
	assert.Equal(t, "Retrieved 2 products successfully", env.Message)
	var items []productBody
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)
}

func TestUpdateProduct(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))
	created := decodeProduct(t, decode(t, h.CreateProduct(ctx, []byte(espressoJSON)).Body))

	resp := h.UpdateProduct(ctx, created.ID, []byte(`{"name":"Updated Test Product","price":2.49}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.Equal(t, "Product updated successfully", env.Message)

	p := decodeProduct(t, env)
	assert.Equal(t, "Updated Test Product", p.Name)
	assert.Equal(t, "2.49", p.Price.String())
	assert.Equal(t, created.Description, p.Description)
	assert.Equal(t, created.Category, p.Category)
	assert.Equal(t, created.CreatedAt, p.CreatedAt)
	assert.GreaterOrEqual(t, p.UpdatedAt, created.UpdatedAt)
}

func TestUpdateProduct_Errors(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))
	created := decodeProduct(t, decode(t, h.CreateProduct(ctx, []byte(espressoJSON)).Body))

	requireFailure(t, h.UpdateProduct(ctx, "", []byte(`{"name":"x"}`)), 400, CodeBadRequest, "Product ID is required")
	requireFailure(t, h.UpdateProduct(ctx, created.ID, nil), 400, CodeBadRequest, "Request body is required")
	requireFailure(t, h.UpdateProduct(ctx, created.ID, []byte(`{`)), 400, CodeInvalidJSON, "Invalid JSON in request body")
	requireFailure(t, h.UpdateProduct(ctx, created.ID, []byte(`{}`)), 400, CodeValidation, "At least one field is required for update")
	requireFailure(t, h.UpdateProduct(ctx, created.ID, []byte(`{"price":"free"}`)), 400, CodeValidation, "Price must be a non-negative number")
	requireFailure(t, h.UpdateProduct(ctx, "product_1_missing", []byte(`{"name":"x"}`)), 404, CodeNotFound, "Product not found")
}

func TestDeleteProduct(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))
	created := decodeProduct(t, decode(t, h.CreateProduct(ctx, []byte(espressoJSON)).Body))

	resp := h.DeleteProduct(ctx, created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.Equal(t, "Product deleted successfully", env.Message)
	assert.JSONEq(t, `{"id":"`+created.ID+`"}`, string(env.Data))

	requireFailure(t, h.GetProduct(ctx, created.ID), 404, CodeNotFound, "Product not found")
	requireFailure(t, h.DeleteProduct(ctx, created.ID), 404, CodeNotFound, "Product not found")
	requireFailure(t, h.DeleteProduct(ctx, ""), 400, CodeBadRequest, "Product ID is required")
}

func TestInternalErrors(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, failingProducts{err: errors.New("ResourceNotFoundException: table missing")})

	tests := []struct {
		name    string
		resp    Response
		message string
	}{
		{"create", h.CreateProduct(ctx, []byte(espressoJSON)), "An unexpected error occurred while creating the product"},
		{"get", h.GetProduct(ctx, "p1"), "An unexpected error occurred while retrieving the product"},
		{"list", h.ListProducts(ctx), "An unexpected error occurred while retrieving products"},
		{"update", h.UpdateProduct(ctx, "p1", []byte(`{"name":"x"}`)), "An unexpected error occurred while updating the product"},
		{"delete", h.DeleteProduct(ctx, "p1"), "An unexpected error occurred while deleting the product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireFailure(t, tt.resp, 500, CodeInternalError, tt.message)
			assert.NotContains(t, string(tt.resp.Body), "table missing", "internal details must not leak")
		})
	}
}

func TestLambda_Routes(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	resp, err := h.Lambda(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Resource:   "/products",
		Body:       espressoJSON,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "true", resp.Headers["Access-Control-Allow-Credentials"])

	created := decodeProduct(t, decode(t, []byte(resp.Body)))

	steps := []struct {
		method string
		body   string
		status int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPut, `{"available":false}`, http.StatusOK},
		{http.MethodDelete, "", http.StatusOK},
		{http.MethodGet, "", http.StatusNotFound},
	}
	for _, s := range steps {
		resp, err := h.Lambda(ctx, events.APIGatewayProxyRequest{
			HTTPMethod:     s.method,
			Resource:       "/products/{id}",
			PathParameters: map[string]string{"id": created.ID},
			Body:           s.body,
		})
		require.NoError(t, err)
		assert.Equal(t, s.status, resp.StatusCode, "%s %s", s.method, resp.Body)
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	}

	resp, err = h.Lambda(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/products"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLambda_Base64Body(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	resp, err := h.Lambda(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Resource:        "/products",
		Body:            base64.StdEncoding.EncodeToString([]byte(espressoJSON)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = h.Lambda(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Resource:        "/products",
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLambda_UnknownRoute(t *testing.T) {
	ctx := testContext(t)
	h := newTestHandler(t, product.NewService(memory.New()))

	for _, req := range []events.APIGatewayProxyRequest{
		{HTTPMethod: http.MethodGet, Resource: "/orders"},
		{HTTPMethod: http.MethodPatch, Resource: "/products/{id}"},
		{HTTPMethod: http.MethodDelete, Resource: "/products"},
	} {
		resp, err := h.Lambda(ctx, req)
		require.NoError(t, err)
		requireFailure(t, Response{StatusCode: resp.StatusCode, Body: []byte(resp.Body)}, 404, CodeNotFound, "Route not found")
	}
}

func TestRouter(t *testing.T) {
	h := newTestHandler(t, product.NewService(memory.New()))
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	do := func(method, path, body string) (*http.Response, envelope) {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		return resp, env
	}

	resp, env := do(http.MethodPost, "/products", espressoJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	created := decodeProduct(t, env)

	resp, _ = do(http.MethodGet, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = do(http.MethodPut, "/products/"+created.ID, `{"category":"latte"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "latte", decodeProduct(t, env).Category)

	resp, env = do(http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Retrieved 1 products successfully", env.Message)

	resp, _ = do(http.MethodDelete, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = do(http.MethodPost, "/products", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeBadRequest, env.Error)

	resp, env = do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", env.Message)
}

func TestRouteFinder(t *testing.T) {
	h := newTestHandler(t, product.NewService(memory.New()))
	find := RouteFinder(h.Router())

	assert.Equal(t, "/products/{id}", find(httptest.NewRequest(http.MethodGet, "/products/abc", nil)))
	assert.Equal(t, "/products", find(httptest.NewRequest(http.MethodPost, "/products", nil)))
	assert.Empty(t, find(httptest.NewRequest(http.MethodGet, "/livez", nil)))
}
