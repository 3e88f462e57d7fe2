package controllers

import (
	"net/http"
	"strings"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

type RoutesController struct {
	routeService    *services.RouteService
	groupingService *services.RouteGroupingService
}

func NewRoutesController(rs *services.RouteService, gs *services.RouteGroupingService) *RoutesController {
	return &RoutesController{routeService: rs, groupingService: gs}
}

// GET /api/v1/routes
func (c *RoutesController) ListHandler(w http.ResponseWriter, r *http.Request) {
	out, err := c.routeService.ListRoutes(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// POST /api/v1/routes
func (c *RoutesController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateRouteRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.routeService.CreateRoute(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, out)
}

// PATCH /api/v1/routes/{id}
func (c *RoutesController) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.UpdateRouteRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.routeService.UpdateRoute(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// DELETE /api/v1/routes/{id}
func (c *RoutesController) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := c.routeService.DeleteRoute(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// PATCH /api/v1/routes/{id}/status
func (c *RoutesController) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.SetRouteStatusRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.routeService.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/routes/{id}/readiness
func (c *RoutesController) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := c.routeService.Readiness(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/routes/{id}/schedule
func (c *RoutesController) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := c.routeService.Schedule(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/routes/{id}/stops[?format=geojson]
func (c *RoutesController) StopsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	stops, err := c.routeService.Stops(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("format"), "geojson") {
		w.Header().Set("Content-Type", "application/geo+json")
		body, err := services.StopsGeoJSON(stops).MarshalJSON()
		if err != nil {
			utils.HandleAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.RouteStopsResponse{RouteID: id, Stops: services.StopDTOs(stops)})
}

// POST /api/v1/routes/auto-group
func (c *RoutesController) AutoGroupHandler(w http.ResponseWriter, r *http.Request) {
	res, err := c.groupingService.AutoGroup(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
