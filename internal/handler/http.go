package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// maxBodyBytes matches the API Gateway payload limit.
const maxBodyBytes = 10 << 20

// Mount registers the product routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/products", h.serveCreate)
	r.Get("/products", h.serveList)
	r.Get("/products/{id}", h.serveGet)
	r.Put("/products/{id}", h.serveUpdate)
	r.Delete("/products/{id}", h.serveDelete)
}

// Router returns a chi router serving the product routes. Unknown routes and
// methods get the envelope 404.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Mount(r)
	r.NotFound(h.serveNotFound)
	r.MethodNotAllowed(h.serveNotFound)
	return r
}

// RouteFinder reports the matched route pattern for r, or "" when no product
// route matches.
func RouteFinder(router chi.Routes) func(r *http.Request) string {
	return func(r *http.Request) string {
		rctx := chi.NewRouteContext()
		if router.Match(rctx, r.Method, r.URL.Path) {
			return rctx.RoutePattern()
		}
		return ""
	}
}

func (h *Handler) serveCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		write(w, h.record(r.Context(), OpCreate, bodyError(r, err)))
		return
	}
	write(w, h.CreateProduct(r.Context(), body))
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request) {
	write(w, h.ListProducts(r.Context()))
}

func (h *Handler) serveGet(w http.ResponseWriter, r *http.Request) {
	write(w, h.GetProduct(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) serveUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		write(w, h.record(r.Context(), OpUpdate, bodyError(r, err)))
		return
	}
	write(w, h.UpdateProduct(r.Context(), chi.URLParam(r, "id"), body))
}

func (h *Handler) serveDelete(w http.ResponseWriter, r *http.Request) {
	write(w, h.DeleteProduct(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	write(w, h.routeNotFound(r.Context()))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func bodyError(r *http.Request, err error) Response {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return badRequest(msgBodyTooLarge)
	}
	zctx.From(r.Context()).Warn("Read request body", zap.Error(err))
	return badRequest(msgBodyRequired)
}

func write(w http.ResponseWriter, resp Response) {
	for k, v := range Headers() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	// The status is already sent; a failed write means the client went away.
	_, _ = w.Write(resp.Body)
}
