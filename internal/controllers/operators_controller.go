package controllers

import (
	"net/http"
	"strconv"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/services"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

type OperatorsController struct {
	operatorService *services.OperatorService
}

func NewOperatorsController(svc *services.OperatorService) *OperatorsController {
	return &OperatorsController{operatorService: svc}
}

// GET /api/v1/operators[?include_inactive=true]
func (c *OperatorsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	out, err := c.operatorService.ListOperators(r.Context(), includeInactive)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// POST /api/v1/operators
func (c *OperatorsController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateOperatorRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.operatorService.CreateOperator(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, out)
}

// PATCH /api/v1/operators/{id}
func (c *OperatorsController) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.UpdateOperatorRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	out, err := c.operatorService.UpdateOperator(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// DELETE /api/v1/operators/{id}
func (c *OperatorsController) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := c.operatorService.DeleteOperator(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}
