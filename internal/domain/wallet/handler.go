package wallet

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
	staff.POST("/patients/:id/wallet", h.ensureWallet)
	staff.GET("/patients/:id/wallet", h.getWallet)
	staff.POST("/wallets/:id/credit", h.credit)
	staff.POST("/wallets/:id/debit", h.debit)
	staff.GET("/wallets/:id/transactions", h.statement)
}

func (h *Handler) ensureWallet(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	actor := auth.ActorFromContext(c.Request().Context())
	w, err := h.svc.EnsureWallet(c.Request().Context(), patientID, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) getWallet(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	w, err := h.svc.GetByPatient(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, w)
}

type creditRequest struct {
	Amount int64   `json:"amount" validate:"required"`
	Note   *string `json:"note"`
}

func (h *Handler) credit(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid wallet id")
	}
	var req creditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := auth.ActorFromContext(c.Request().Context())
	txn, err := h.svc.Credit(c.Request().Context(), walletID, req.Amount, req.Note, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, txn)
}

type debitRequest struct {
	Amount  int64   `json:"amount" validate:"required"`
	VisitID *string `json:"visit_id"`
	Note    *string `json:"note"`
}

func (h *Handler) debit(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid wallet id")
	}
	var req debitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var visitID *uuid.UUID
	if req.VisitID != nil {
		id, err := uuid.Parse(*req.VisitID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit_id")
		}
		visitID = &id
	}

	actor := auth.ActorFromContext(c.Request().Context())
	txn, err := h.svc.Debit(c.Request().Context(), walletID, req.Amount, visitID, req.Note, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, txn)
}

func (h *Handler) statement(c echo.Context) error {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid wallet id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.Statement(c.Request().Context(), walletID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, visit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingVisitReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, visit.ErrClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return err
	}
}
