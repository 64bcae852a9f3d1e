package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/app"
	"gophercalc/internal/model"
	"gophercalc/internal/pkg/operations"
	"gophercalc/internal/transport/http/middleware"
	"gophercalc/internal/transport/http/response"
)

type CalculationHandler struct {
	calcService *app.CalculationService
}

// CalculationRequest binds operands through pointers so that zero is
// accepted while a missing operand is rejected.
type CalculationRequest struct {
	A    *float64 `json:"a" binding:"required"`
	B    *float64 `json:"b" binding:"required"`
	Type string   `json:"type" binding:"required,oneof=add subtract multiply divide"`
}

// CalculationUpdateRequest leaves every field optional; absent fields
// keep their stored values.
type CalculationUpdateRequest struct {
	A    *float64 `json:"a"`
	B    *float64 `json:"b"`
	Type *string  `json:"type" binding:"omitempty,oneof=add subtract multiply divide"`
}

func NewCalculationHandler(calcService *app.CalculationService) *CalculationHandler {
	return &CalculationHandler{calcService: calcService}
}

func (h *CalculationHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var req CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if req.Type == operations.Divide && *req.B == 0 {
		response.ValidationDetail(c, response.FieldError{
			Loc:  []string{"body", "b"},
			Msg:  "Division by zero is not allowed",
			Type: "value_error",
		})
		return
	}

	calc, err := h.calcService.Create(c.Request.Context(), user.ID, app.CalculationInput{
		A:    *req.A,
		B:    *req.B,
		Type: req.Type,
	})
	if err != nil {
		writeCalcError(c, err)
		return
	}
	c.JSON(http.StatusCreated, calc)
}

func (h *CalculationHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", app.DefaultHistoryLimit)
	if !ok {
		return
	}

	calcs, err := h.calcService.List(c.Request.Context(), user.ID, skip, limit)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if calcs == nil {
		calcs = []model.Calculation{}
	}
	c.JSON(http.StatusOK, calcs)
}

func (h *CalculationHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	calc, err := h.calcService.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		writeCalcError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (h *CalculationHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CalculationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	calc, err := h.calcService.Update(c.Request.Context(), user.ID, id, app.CalculationUpdateInput{
		A:    req.A,
		B:    req.B,
		Type: req.Type,
	})
	if err != nil {
		writeCalcError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (h *CalculationHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.calcService.Delete(c.Request.Context(), user.ID, id); err != nil {
		writeCalcError(c, err)
		return
	}
	response.Message(c, fmt.Sprintf("Calculation %d deleted successfully", id))
}

func writeCalcError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrCalculationNotFound):
		response.Detail(c, http.StatusNotFound, "Calculation not found")
	case errors.Is(err, operations.ErrDivisionByZero):
		response.Detail(c, http.StatusBadRequest, "Division by zero is not allowed")
	case errors.Is(err, operations.ErrUnknownOperation):
		response.Detail(c, http.StatusBadRequest, "Invalid operation type")
	default:
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
	}
}
