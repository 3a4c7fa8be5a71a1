package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/service"
	"github.com/brewtab/cafe-backend/internal/util"
)

type OrderHandler struct {
	Svc *service.OrderService
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	order, err := h.Svc.Checkout(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.NotFound("order")
	}

	order, err := h.Svc.GetOrder(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	orders, err := h.Svc.ListOrders(c.Request().Context(), c.QueryParam("status"), limit, from)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.NotFound("order")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	order, err := h.Svc.UpdateStatus(c.Request().Context(), uint(id), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
