package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"userhandler/internal/errors"
	"userhandler/internal/model"
	"userhandler/internal/service"
)

const (
	defaultMinAge = 18
	defaultMaxAge = 40
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest is the administrative create payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Username string `json:"username" validate:"required,min=4,max=50,excludes=@"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Birthday string `json:"birthday" validate:"required,pastdate" example:"1992-06-15"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// UpdateUserRequest carries the mutable user fields.
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=150"`
}

// AverageAgeResponse wraps the mean age of all users.
type AverageAgeResponse struct {
	AverageAge float64 `json:"average_age"`
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := h.svc.CreateUser(c.Request().Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Birthday: req.Birthday,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserView
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser godoc
// @Summary Update name and email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "New name and email"
// @Success 200 {object} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := h.svc.UpdateUser(c.Request().Context(), id, service.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	deleted, err := h.svc.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	if !deleted {
		return domainError(errors.ErrUserNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// AverageAge godoc
// @Summary Average user age in calendar years
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AverageAgeResponse
// @Router /users/stats/average-age [get]
func (h *UserHandler) AverageAge(c echo.Context) error {
	avg, err := h.svc.AverageAge(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, AverageAgeResponse{AverageAge: avg})
}

// AgeRange godoc
// @Summary Users whose age lies within [min, max]
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param min query int false "Lowest age" default(18)
// @Param max query int false "Highest age" default(40)
// @Success 200 {array} model.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/age-range [get]
func (h *UserHandler) AgeRange(c echo.Context) error {
	low, err := queryInt(c, "min", defaultMinAge)
	if err != nil {
		return err
	}
	high, err := queryInt(c, "max", defaultMaxAge)
	if err != nil {
		return err
	}
	users, err := h.svc.UsersInAgeRange(c.Request().Context(), low, high)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserView
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := c.Get(ContextUserKey).(*model.User)
	if !ok {
		return domainError(errors.ErrInvalidToken)
	}
	return c.JSON(http.StatusOK, user.View())
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid id",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: name + " must be an integer",
			Code:  "INVALID_QUERY",
		})
	}
	return v, nil
}
