//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"
)

// The stack is exercised black-box: dynamodb-local, a one-shot seed-db run
// and the api-server image, all from docker-compose.test.yml.

const seededProducts = 12

var (
	baseURL    string
	httpClient *http.Client
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type productBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   bool    `json:"available"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dc, err := tc.NewDockerCompose("../../docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}
	defer func() {
		if err := dc.Down(context.Background(), tc.RemoveOrphans(true)); err != nil {
			log.Printf("compose down: %v", err)
		}
	}()

	err = dc.
		WaitForService("api", wait.ForHTTP("/readyz").WithPort("8080/tcp")).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Printf("compose up: %v", err)
		return 1
	}

	api, err := dc.ServiceContainer(ctx, "api")
	if err != nil {
		log.Printf("api container: %v", err)
		return 1
	}
	endpoint, err := api.PortEndpoint(ctx, "8080/tcp", "http")
	if err != nil {
		log.Printf("api endpoint: %v", err)
		return 1
	}
	baseURL = endpoint
	httpClient = &http.Client{Timeout: 10 * time.Second}
	log.Printf("API available at %s", baseURL)

	return m.Run()
}

func do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	require.NoError(t, err, "%s %s", method, path)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "ok", decode[healthBody](t, resp).Status)
	}
}

func TestListSeeded(t *testing.T) {
	resp := do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	body := decode[envelope[[]productBody]](t, resp)
	assert.True(t, body.Success)
	assert.GreaterOrEqual(t, len(body.Data), seededProducts)
	assert.Equal(t, fmt.Sprintf("Retrieved %d products successfully", len(body.Data)), body.Message)
}

func TestProductLifecycle(t *testing.T) {
	resp := do(t, http.MethodPost, "/products", map[string]any{
		"name":        "  Flat White ",
		"description": "Ristretto with velvety microfoam",
		"price":       4.35,
		"category":    "latte",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[envelope[productBody]](t, resp)
	require.True(t, created.Success)
	assert.Equal(t, "Product created successfully", created.Message)
	assert.Equal(t, "Flat White", created.Data.Name)
	assert.True(t, created.Data.Available)
	assert.Equal(t, created.Data.CreatedAt, created.Data.UpdatedAt)
	id := created.Data.ID

	resp = do(t, http.MethodGet, "/products/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.Data, decode[envelope[productBody]](t, resp).Data)

	resp = do(t, http.MethodPut, "/products/"+id, map[string]any{"price": 4.5, "available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[envelope[productBody]](t, resp).Data
	assert.Equal(t, 4.5, updated.Price)
	assert.False(t, updated.Available)
	assert.Equal(t, "Flat White", updated.Name)
	assert.Equal(t, created.Data.CreatedAt, updated.CreatedAt)

	resp = do(t, http.MethodDelete, "/products/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[envelope[struct {
		ID string `json:"id"`
	}]](t, resp)
	assert.Equal(t, id, deleted.Data.ID)
	assert.Equal(t, "Product deleted successfully", deleted.Message)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp = do(t, method, "/products/"+id, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, method)
		assert.Equal(t, "NOT_FOUND", decode[envelope[any]](t, resp).Error)
	}
	resp = do(t, http.MethodPut, "/products/"+id, map[string]any{"name": "Ghost"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		code    string
		message string
	}{
		{"InvalidJSON", http.MethodPost, "/products", `{"name":`, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body"},
		{"MissingBody", http.MethodPost, "/products", nil, http.StatusBadRequest, "BAD_REQUEST", "Request body is required"},
		{"NegativePrice", http.MethodPost, "/products", map[string]any{
			"name": "Tea", "description": "Hot", "price": -1, "category": "tea",
		}, http.StatusBadRequest, "VALIDATION_ERROR", "Price is required and must be a non-negative number"},
		{"EmptyUpdate", http.MethodPut, "/products/anything", map[string]any{}, http.StatusBadRequest, "VALIDATION_ERROR", "At least one field is required for update"},
		{"UnknownRoute", http.MethodGet, "/orders", nil, http.StatusNotFound, "NOT_FOUND", "Route not found"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, resp.StatusCode)
			body := decode[envelope[any]](t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestIDEchoed", func(t *testing.T) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/livez", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "custom-request-id-12345")
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, "custom-request-id-12345", resp.Header.Get("X-Request-ID"))
	})
	t.Run("CORSPreflight", func(t *testing.T) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, baseURL+"/products", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := httpClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
	})
}
