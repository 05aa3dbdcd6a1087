package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// Error codes carried in the "error" field of a failure envelope.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	msgInvalidJSON      = "Invalid JSON in request body"
	msgNotFound         = "Product not found"
	msgRouteNotFound    = "Route not found"
	msgBodyRequired     = "Request body is required"
	msgBodyTooLarge     = "Request body is too large"
	msgProductIDMissing = "Product ID is required"
)

// Response is a transport-neutral handler result. Every response carries
// the headers returned by Headers.
type Response struct {
	StatusCode int
	Body       []byte
}

// Headers returns the fixed response headers.
func Headers() map[string]string {
	return map[string]string{
		"Content-Type":                     "application/json",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Credentials": "true",
	}
}

// success renders {"success":true,"data":...,"message":...}.
func success(status int, message string, data func(e *jx.Encoder)) Response {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("data", data)
		if message != "" {
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		}
	})
	return Response{StatusCode: status, Body: e.Bytes()}
}

// failure renders {"success":false,"error":code,"message":message}.
func failure(status int, code, message string) Response {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(false) })
		e.Field("error", func(e *jx.Encoder) { e.Str(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return Response{StatusCode: status, Body: e.Bytes()}
}

func badRequest(message string) Response {
	return failure(http.StatusBadRequest, CodeBadRequest, message)
}

func notFound(message string) Response {
	return failure(http.StatusNotFound, CodeNotFound, message)
}

func internalError(message string) Response {
	return failure(http.StatusInternalServerError, CodeInternalError, message)
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(p.Price.String())) })
		e.Field("category", func(e *jx.Encoder) { e.Str(string(p.Category)) })
		e.Field("available", func(e *jx.Encoder) { e.Bool(p.Available) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(p.CreatedAt.UTC().Format(timestampLayout)) })
		e.Field("updatedAt", func(e *jx.Encoder) { e.Str(p.UpdatedAt.UTC().Format(timestampLayout)) })
	})
}

func productData(p product.Product) func(e *jx.Encoder) {
	return func(e *jx.Encoder) { encodeProduct(e, p) }
}

func productsData(products []product.Product) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	}
}

func idData(id string) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		})
	}
}
