package handler

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// API Gateway resource templates.
const (
	resourceProducts = "/products"
	resourceProduct  = "/products/{id}"
)

// Lambda routes an API Gateway proxy event to the matching operation. It
// never returns an error; every outcome is expressed as a response.
func (h *Handler) Lambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = zctx.With(ctx,
		zap.String("http.method", req.HTTPMethod),
		zap.String("http.resource", req.Resource),
		zap.String("aws.request_id", req.RequestContext.RequestID),
	)

	id := req.PathParameters["id"]
	var resp Response
	switch req.Resource {
	case resourceProducts:
		switch req.HTTPMethod {
		case http.MethodPost:
			body, ok := lambdaBody(req)
			if !ok {
				resp = h.record(ctx, OpCreate, failure(http.StatusBadRequest, CodeInvalidJSON, msgInvalidJSON))
				break
			}
			resp = h.CreateProduct(ctx, body)
		case http.MethodGet:
			resp = h.ListProducts(ctx)
		default:
			resp = h.routeNotFound(ctx)
		}
	case resourceProduct:
		switch req.HTTPMethod {
		case http.MethodGet:
			resp = h.GetProduct(ctx, id)
		case http.MethodPut:
			body, ok := lambdaBody(req)
			if !ok {
				resp = h.record(ctx, OpUpdate, failure(http.StatusBadRequest, CodeInvalidJSON, msgInvalidJSON))
				break
			}
			resp = h.UpdateProduct(ctx, id, body)
		case http.MethodDelete:
			resp = h.DeleteProduct(ctx, id)
		default:
			resp = h.routeNotFound(ctx)
		}
	default:
		resp = h.routeNotFound(ctx)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    Headers(),
		Body:       string(resp.Body),
	}, nil
}

func (h *Handler) routeNotFound(ctx context.Context) Response {
	return h.record(ctx, OpRoute, notFound(msgRouteNotFound))
}

// lambdaBody returns the raw request body, decoding base64 payloads. ok is
// false when a base64 payload is malformed.
func lambdaBody(req events.APIGatewayProxyRequest) (body []byte, ok bool) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), true
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, false
	}
	return b, true
}
