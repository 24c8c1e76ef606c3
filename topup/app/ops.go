package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/m3rciful/topupbot/core/opsserver"
	"github.com/m3rciful/topupbot/topup/orders"
)

type ordersResponse struct {
	Total  int            `json:"total"`
	Orders []orders.Order `json:"orders"`
}

func (a *App) opsRoutes(r chi.Router) {
	r.Get("/orders", a.listOrders)
	r.Get("/orders/{orderID}", a.getOrder)
}

func (a *App) listOrders(w http.ResponseWriter, r *http.Request) {
	var status orders.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := orders.ParseStatus(v)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, opsserver.ErrorResponse{Status: "bad_request", Error: err.Error()})
			return
		}
		status = st
	}
	list, err := a.store.List(r.Context(), status)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, opsserver.ErrorResponse{Status: "error"})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	render.JSON(w, r, ordersResponse{Total: len(list), Orders: list})
}

func (a *App) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.store.Get(r.Context(), chi.URLParam(r, "orderID"))
	switch {
	case errors.Is(err, orders.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, opsserver.ErrorResponse{Status: "not_found"})
	case err != nil:
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, opsserver.ErrorResponse{Status: "error"})
	default:
		render.JSON(w, r, o)
	}
}
