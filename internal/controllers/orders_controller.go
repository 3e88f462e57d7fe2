package controllers

import (
	"net/http"
	"strconv"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

type OrdersController struct {
	orderService *services.OrderService
}

func NewOrdersController(svc *services.OrderService) *OrdersController {
	return &OrdersController{orderService: svc}
}

// GET /api/v1/orders[?include_deleted=true]
func (c *OrdersController) ListHandler(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))
	out, err := c.orderService.ListOrders(r.Context(), includeDeleted)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/orders/inbox?q=&cadence=&age=
func (c *OrdersController) InboxHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := c.orderService.Inbox(r.Context(), services.InboxFilter{
		Query:   q.Get("q"),
		Cadence: q.Get("cadence"),
		Age:     q.Get("age"),
	})
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// POST /api/v1/orders/geocode
func (c *OrdersController) GeocodeHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.GeocodeOrdersRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}
	out, err := c.orderService.GeocodeMissing(r.Context(), req.Limit)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// PATCH /api/v1/orders/{id}/route
func (c *OrdersController) AssignRouteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.AssignOrderRouteRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.orderService.AssignRoute(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// PATCH /api/v1/orders/{id}/status
func (c *OrdersController) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.SetOrderStatusRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.orderService.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// DELETE /api/v1/orders/{id} archives the order; it stays listed with include_deleted.
func (c *OrdersController) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := c.orderService.DeleteOrder(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}
