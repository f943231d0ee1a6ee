package payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/visit"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.RoleReception, auth.RoleBilling))
	staff.POST("/visits/:id/payments", h.recordPayment)
	staff.GET("/visits/:id/payments", h.listPayments)
	staff.POST("/payment-intents", h.initializeIntent)
	staff.GET("/payment-intents/:reference/payment", h.intentPayment)

	// The gateway callback arrives with a service credential, not a staff one.
	webhook := api.Group("", auth.RequireRole(auth.RoleBilling, auth.RoleSystem))
	webhook.POST("/payment-intents/verify", h.verifyIntent)
}

type recordPaymentRequest struct {
	Amount    int64   `json:"amount" validate:"required"`
	Method    string  `json:"method" validate:"required,oneof=cash card"`
	Reference *string `json:"reference"`
}

func (h *Handler) recordPayment(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := auth.ActorFromContext(c.Request().Context())
	p, err := h.svc.RecordPayment(c.Request().Context(), visitID, req.Amount, Method(req.Method), req.Reference, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) listPayments(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByVisit(c.Request().Context(), visitID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type initializeIntentRequest struct {
	VisitID          string `json:"visit_id" validate:"required,uuid"`
	GatewayReference string `json:"gateway_reference" validate:"required"`
	Amount           int64  `json:"amount" validate:"required"`
}

func (h *Handler) initializeIntent(c echo.Context) error {
	var req initializeIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_id")
	}

	actor := auth.ActorFromContext(c.Request().Context())
	i, err := h.svc.InitializeIntent(c.Request().Context(), visitID, req.GatewayReference, req.Amount, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, i)
}

type verifyIntentRequest struct {
	GatewayReference string  `json:"gateway_reference" validate:"required"`
	Success          bool    `json:"success"`
	FailureReason    *string `json:"failure_reason"`
}

func (h *Handler) verifyIntent(c echo.Context) error {
	var req verifyIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := auth.ActorFromContext(c.Request().Context())
	i, err := h.svc.VerifyIntent(c.Request().Context(), req.GatewayReference, req.Success, req.FailureReason, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) intentPayment(c echo.Context) error {
	p, err := h.svc.IntentPayment(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIntentNotFound), errors.Is(err, visit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateGatewayReference), errors.Is(err, ErrIntentNotVerified), errors.Is(err, visit.ErrClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
