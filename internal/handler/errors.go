package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"userhandler/internal/errors"
	"userhandler/internal/validation"
)

// ContextUserKey is where the bearer middleware stores the authenticated *model.User.
const ContextUserKey = "user"

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// validationFailed reports every failed field in one response.
func validationFailed(err error) *echo.HTTPError {
	resp := errors.ErrorResponse{
		Error: "validation failed",
		Code:  "VALIDATION_FAILED",
	}
	var fields validation.Errors
	if stderrors.As(err, &fields) {
		resp.Fields = fields
	} else {
		resp.Error = err.Error()
	}
	return echo.NewHTTPError(http.StatusBadRequest, resp)
}

func domainError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(req); err != nil {
		return validationFailed(err)
	}
	return nil
}
