package controllers

import (
	"net/http"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

type DispatchController struct {
	dispatchService     *services.DispatchService
	kpiService          *services.KPIService
	notificationService *services.NotificationService
}

func NewDispatchController(
	ds *services.DispatchService,
	ks *services.KPIService,
	ns *services.NotificationService,
) *DispatchController {
	return &DispatchController{dispatchService: ds, kpiService: ks, notificationService: ns}
}

// GET /api/v1/dispatch/run-sheet?date=YYYY-MM-DD (defaults to today)
func (c *DispatchController) RunSheetHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(w, r, "date", c.dispatchService.Today())
	if !ok {
		return
	}
	out, err := c.dispatchService.BuildRunSheet(r.Context(), day)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// POST /api/v1/dispatch/notify?date=YYYY-MM-DD
func (c *DispatchController) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(w, r, "date", c.dispatchService.Today())
	if !ok {
		return
	}
	out, err := c.notificationService.NotifyRunSheets(r.Context(), day)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/dispatch/kpis?week=YYYY-MM-DD (any day of the week)
func (c *DispatchController) KPIsHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(w, r, "week", c.dispatchService.Today())
	if !ok {
		return
	}
	out, err := c.kpiService.WeekSummary(r.Context(), day)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// GET /api/v1/dispatch/next-opening
func (c *DispatchController) NextOpeningHandler(w http.ResponseWriter, r *http.Request) {
	out, err := c.dispatchService.NextOpening(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// POST /api/v1/dispatch/auto-assign?week=YYYY-MM-DD (any day of the week)
func (c *DispatchController) AutoAssignHandler(w http.ResponseWriter, r *http.Request) {
	day, ok := queryDate(w, r, "week", c.dispatchService.Today())
	if !ok {
		return
	}
	out, err := c.dispatchService.AutoAssignOperators(r.Context(), day)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}
