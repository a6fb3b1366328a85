package router

import (
	"context"
	stderrors "errors"
	"math"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"userhandler/internal/config"
	"userhandler/internal/errors"
	"userhandler/internal/handler"
	"userhandler/internal/service"
	"userhandler/internal/validation"
)

// ReadyFunc reports whether backing stores are reachable.
type ReadyFunc func(ctx context.Context) error

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authService service.AuthService,
	ready ReadyFunc,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = validation.New()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/ready", func(c echo.Context) error {
		if ready != nil {
			if err := ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, errors.ErrorResponse{
					Error: "not ready",
					Code:  "NOT_READY",
				})
			}
		}
		return c.String(http.StatusOK, "ready")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes, throttled per client IP
	public := api.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		public.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(cfg.AuthRateLimit),
				Burst: int(math.Max(1, math.Ceil(cfg.AuthRateLimit))),
			},
		)))
	}
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", BearerAuth(authService))

	secured.GET("/me", userHandler.Me)

	secured.GET("/users", userHandler.ListUsers)
	secured.POST("/users", userHandler.CreateUser)
	secured.GET("/users/stats/average-age", userHandler.AverageAge)
	secured.GET("/users/age-range", userHandler.AgeRange)
	secured.GET("/users/:id", userHandler.GetUser)
	secured.PUT("/users/:id", userHandler.UpdateUser)
	secured.DELETE("/users/:id", userHandler.DeleteUser)
}

// BearerAuth resolves "Authorization: Bearer <token>" to a stored user and puts it
// in the context under handler.ContextUserKey. Bad or expired tokens answer 401;
// failures while resolving the user answer 500.
func BearerAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextUserKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			user, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				if isTokenError(err) {
					return nil, err
				}
				return nil, &lookupError{err: err}
			}
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var lookupErr *lookupError
			switch {
			case isTokenError(err):
				httpErr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			case stderrors.As(err, &lookupErr):
				c.Logger().Errorf("bearer auth: %v", lookupErr.err)
				httpErr := errors.MapErrorToHTTP(lookupErr.err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "missing or malformed bearer token",
					Code:  "UNAUTHORIZED",
				})
			}
		},
	})
}

func isTokenError(err error) bool {
	return stderrors.Is(err, errors.ErrTokenExpired) || stderrors.Is(err, errors.ErrInvalidToken)
}

// lookupError marks an Authenticate failure that is not about the token itself.
type lookupError struct {
	err error
}

func (e *lookupError) Error() string { return e.err.Error() }

func (e *lookupError) Unwrap() error { return e.err }
