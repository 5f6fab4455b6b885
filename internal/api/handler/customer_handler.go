package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-api/internal/api/metrics"
	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
)

type CustomerHandler struct {
	service ports.CustomerService
	now     func() time.Time
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service, now: time.Now}
}

// Create registers a new customer.
//
// @Summary      Register a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body      createCustomerRequest  true  "Customer details"
// @Success      201   {object}  customerResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in, err := toCreateInput(req)
	if err != nil {
		return err
	}

	created, err := h.service.Create(c.Request().Context(), in)
	observe("create", err)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/customers/%d", created.ID))
	return c.JSON(http.StatusCreated, toCustomerResponse(created, h.now()))
}

// Get returns a single customer.
//
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer ID"
// @Success      200  {object}  customerResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	customer, err := h.service.Get(c.Request().Context(), id)
	observe("get", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(customer, h.now()))
}

// Update replaces a customer's profile.
//
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Customer ID"
// @Param        body  body      updateCustomerRequest  true  "Profile fields"
// @Success      200   {object}  customerResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in, err := toUpdateInput(req)
	if err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), id, in)
	observe("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCustomerResponse(updated, h.now()))
}

// Delete removes a customer.
//
// @Summary      Delete a customer
// @Tags         customers
// @Security     BearerAuth
// @Param        id   path  int  true  "Customer ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), id)
	observe("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List searches customers. Requires the admin scope.
//
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        name         query     string  false  "Name contains (case-insensitive)"
// @Param        national_id  query     string  false  "Exact national ID"
// @Param        email        query     string  false  "Exact email"
// @Param        birth_date   query     string  false  "Exact birth date (yyyy-MM-dd)"
// @Param        phone        query     string  false  "Exact phone"
// @Param        page         query     int     false  "Zero-based page"      default(0)
// @Param        size         query     int     false  "Page size (max 100)"  default(10)
// @Success      200          {object}  listCustomersResponse
// @Failure      400          {object}  ErrorResponse
// @Failure      401          {object}  ErrorResponse
// @Failure      403          {object}  ErrorResponse
// @Router       /customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return err
	}

	params := filter.Params{
		Name:       c.QueryParam("name"),
		NationalID: queryAlias(c, "national_id", "national-id"),
		Email:      c.QueryParam("email"),
		Phone:      c.QueryParam("phone"),
	}
	if raw := queryAlias(c, "birth_date", "birth-date"); raw != "" {
		if params.BirthDate, err = domain.ParseDate(raw); err != nil {
			return err
		}
	}

	result, err := h.service.List(c.Request().Context(), ports.ListCustomersInput{
		Filter: params,
		Page:   page,
		Size:   size,
	})
	observe("list", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result, h.now()))
}

func pathID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &domain.ArgumentTypeError{Name: "id", Value: raw, Type: "int64"}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means zero.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ArgumentTypeError{Name: name, Value: raw, Type: "int"}
	}
	return n, nil
}

func queryAlias(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			return v
		}
	}
	return ""
}

func observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.CustomerOperationsTotal.WithLabelValues(operation, result).Inc()
}
