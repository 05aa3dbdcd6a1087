package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// Fixed 500 messages; the underlying error is only logged.
const (
	msgCreateFailed = "An unexpected error occurred while creating the product"
	msgGetFailed    = "An unexpected error occurred while retrieving the product"
	msgListFailed   = "An unexpected error occurred while retrieving products"
	msgUpdateFailed = "An unexpected error occurred while updating the product"
	msgDeleteFailed = "An unexpected error occurred while deleting the product"
)

// inputError maps parsing and validation failures to 400 responses. ok is
// false for any other error.
func inputError(err error) (Response, bool) {
	var ve *product.ValidationError
	switch {
	case errors.As(err, &ve):
		return failure(http.StatusBadRequest, CodeValidation, ve.Message), true
	case errors.Is(err, product.ErrInvalidJSON):
		return failure(http.StatusBadRequest, CodeInvalidJSON, msgInvalidJSON), true
	default:
		return Response{}, false
	}
}

// CreateProduct validates body and stores a new product. An empty body is
// treated as absent.
func (h *Handler) CreateProduct(ctx context.Context, body []byte) Response {
	lg := zctx.From(ctx)

	if len(body) == 0 {
		return h.record(ctx, OpCreate, badRequest(msgBodyRequired))
	}
	req, err := parseCreate(body)
	if err != nil {
		lg.Info("Rejected create request", zap.Error(err))
		if resp, ok := inputError(err); ok {
			return h.record(ctx, OpCreate, resp)
		}
		return h.record(ctx, OpCreate, internalError(msgCreateFailed))
	}

	p, err := h.products.Create(ctx, req)
	if err != nil {
		lg.Error("Create product failed", zap.Error(err))
		return h.record(ctx, OpCreate, internalError(msgCreateFailed))
	}

	lg.Info("Product created", zap.String("product_id", p.ID))
	return h.record(ctx, OpCreate, success(http.StatusCreated, "Product created successfully", productData(p)))
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(ctx context.Context, rawID string) Response {
	lg := zctx.From(ctx)

	if rawID == "" {
		return h.record(ctx, OpGet, badRequest(msgProductIDMissing))
	}
	id, err := product.ValidateProductID(rawID)
	if err != nil {
		resp, _ := inputError(err)
		return h.record(ctx, OpGet, resp)
	}

	p, ok, err := h.products.GetByID(ctx, id)
	if err != nil {
		lg.Error("Get product failed", zap.String("product_id", id), zap.Error(err))
		return h.record(ctx, OpGet, internalError(msgGetFailed))
	}
	if !ok {
		return h.record(ctx, OpGet, notFound(msgNotFound))
	}

	return h.record(ctx, OpGet, success(http.StatusOK, "Product retrieved successfully", productData(p)))
}

// ListProducts returns every product.
func (h *Handler) ListProducts(ctx context.Context) Response {
	lg := zctx.From(ctx)

	products, err := h.products.GetAll(ctx)
	if err != nil {
		lg.Error("List products failed", zap.Error(err))
		return h.record(ctx, OpList, internalError(msgListFailed))
	}

	msg := fmt.Sprintf("Retrieved %d products successfully", len(products))
	lg.Info(msg)
	return h.record(ctx, OpList, success(http.StatusOK, msg, productsData(products)))
}

// UpdateProduct applies the supplied fields of body to an existing product.
func (h *Handler) UpdateProduct(ctx context.Context, rawID string, body []byte) Response {
	lg := zctx.From(ctx)

	if rawID == "" {
		return h.record(ctx, OpUpdate, badRequest(msgProductIDMissing))
	}
	if len(body) == 0 {
		return h.record(ctx, OpUpdate, badRequest(msgBodyRequired))
	}
	id, req, err := parseUpdate(rawID, body)
	if err != nil {
		lg.Info("Rejected update request", zap.Error(err))
		if resp, ok := inputError(err); ok {
			return h.record(ctx, OpUpdate, resp)
		}
		return h.record(ctx, OpUpdate, internalError(msgUpdateFailed))
	}

	p, ok, err := h.products.Update(ctx, id, req)
	if err != nil {
		lg.Error("Update product failed", zap.String("product_id", id), zap.Error(err))
		return h.record(ctx, OpUpdate, internalError(msgUpdateFailed))
	}
	if !ok {
		return h.record(ctx, OpUpdate, notFound(msgNotFound))
	}

	lg.Info("Product updated", zap.String("product_id", p.ID))
	return h.record(ctx, OpUpdate, success(http.StatusOK, "Product updated successfully", productData(p)))
}

// DeleteProduct removes an existing product and echoes its id.
func (h *Handler) DeleteProduct(ctx context.Context, rawID string) Response {
	lg := zctx.From(ctx)

	if rawID == "" {
		return h.record(ctx, OpDelete, badRequest(msgProductIDMissing))
	}
	id, err := product.ValidateProductID(rawID)
	if err != nil {
		resp, _ := inputError(err)
		return h.record(ctx, OpDelete, resp)
	}

	ok, err := h.products.Delete(ctx, id)
	if err != nil {
		lg.Error("Delete product failed", zap.String("product_id", id), zap.Error(err))
		return h.record(ctx, OpDelete, internalError(msgDeleteFailed))
	}
	if !ok {
		return h.record(ctx, OpDelete, notFound(msgNotFound))
	}

	lg.Info("Product deleted", zap.String("product_id", id))
	return h.record(ctx, OpDelete, success(http.StatusOK, "Product deleted successfully", idData(id)))
}

func parseCreate(body []byte) (product.CreateRequest, error) {
	in, err := product.ParseInput(body)
	if err != nil {
		return product.CreateRequest{}, err
	}
	return product.ValidateCreate(in)
}

func parseUpdate(rawID string, body []byte) (string, product.UpdateRequest, error) {
	id, err := product.ValidateProductID(rawID)
	if err != nil {
		return "", product.UpdateRequest{}, err
	}
	in, err := product.ParseInput(body)
	if err != nil {
		return "", product.UpdateRequest{}, err
	}
	req, err := product.ValidateUpdate(in)
	if err != nil {
		return "", product.UpdateRequest{}, err
	}
	return id, req, nil
}
