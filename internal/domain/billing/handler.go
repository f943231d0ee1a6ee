package billing

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
	staff := api.Group("", auth.RequireRole(auth.RoleReception, auth.RoleDoctor, auth.RoleBilling))
	staff.GET("/visits/:id/charges", h.listCharges)
	staff.GET("/visits/:id/summary", h.getSummary)
	staff.GET("/visits/:id/policies", h.listPolicies)

	clinical := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleBilling))
	clinical.POST("/visits/:id/charges", h.addCharge)

	billingOnly := api.Group("", auth.RequireRole(auth.RoleBilling))
	billingOnly.POST("/charges/:id/reverse", h.reverseCharge)
	billingOnly.POST("/visits/:id/policies", h.attachPolicy)
	billingOnly.PUT("/policies/:id/approval", h.setApproval)
}

type addChargeRequest struct {
	Category    string  `json:"category" validate:"required"`
	Amount      int64   `json:"amount" validate:"required"`
	Description *string `json:"description"`
}

func (h *Handler) addCharge(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var req addChargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := auth.ActorFromContext(c.Request().Context())
	charge, err := h.svc.AddCharge(c.Request().Context(), visitID, ChargeCategory(req.Category), req.Amount, req.Description, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, charge)
}

func (h *Handler) reverseCharge(c echo.Context) error {
	chargeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid charge id")
	}
	actor := auth.ActorFromContext(c.Request().Context())
	rev, err := h.svc.ReverseCharge(c.Request().Context(), chargeID, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rev)
}

func (h *Handler) listCharges(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListCharges(c.Request().Context(), visitID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type attachPolicyRequest struct {
	ProviderName       string `json:"provider_name" validate:"required"`
	PolicyNumber       string `json:"policy_number" validate:"required"`
	CoverageType       string `json:"coverage_type" validate:"required,oneof=full partial"`
	CoveragePercentage *int   `json:"coverage_percentage"`
	ApprovedAmount     *int64 `json:"approved_amount"`
}

func (h *Handler) attachPolicy(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var req attachPolicyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p := &InsurancePolicy{
		VisitID:            visitID,
		ProviderName:       req.ProviderName,
		PolicyNumber:       req.PolicyNumber,
		CoverageType:       CoverageType(req.CoverageType),
		CoveragePercentage: req.CoveragePercentage,
		ApprovedAmount:     req.ApprovedAmount,
	}
	actor := auth.ActorFromContext(c.Request().Context())
	if err := h.svc.AttachPolicy(c.Request().Context(), p, actor); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) listPolicies(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	items, err := h.svc.ListPolicies(c.Request().Context(), visitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

type setApprovalRequest struct {
	Status         string `json:"status" validate:"required,oneof=approved rejected"`
	ApprovedAmount *int64 `json:"approved_amount"`
}

func (h *Handler) setApproval(c echo.Context) error {
	policyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid policy id")
	}
	var req setApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := auth.ActorFromContext(c.Request().Context())
	p, err := h.svc.SetApproval(c.Request().Context(), policyID, ApprovalStatus(req.Status), req.ApprovedAmount, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) getSummary(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	sum, err := h.svc.GetSummary(c.Request().Context(), visitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrChargeNotFound), errors.Is(err, ErrPolicyNotFound), errors.Is(err, visit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, visit.ErrClosed), errors.Is(err, ErrAlreadyReversed),
		errors.Is(err, ErrPolicyFinalized), errors.Is(err, ErrUnapprovedInsurance):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
