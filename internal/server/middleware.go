package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// errorHandler maps the engine's error taxonomy onto HTTP codes: validation
// failures are the caller's fault, an unresolvable conversation is a
// semantic rejection, network errors mean the backend is unreachable.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		he := classify(err)
		if !c.Response().Committed {
			var werr error
			if c.Request().Method == http.MethodHead {
				werr = c.NoContent(he.Code)
			} else {
				werr = c.JSON(he.Code, he)
			}
			if werr != nil {
				c.Logger().Error(werr)
			}
		}
	}
}

func classify(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	if errors.Is(err, models.ErrConversationUnresolvable) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			"conversation could not be resolved, please try again later")
	}
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	var nerr *models.NetworkError
	if errors.As(err, &nerr) {
		return echo.NewHTTPError(http.StatusBadGateway, "backend unreachable")
	}

	return &echo.HTTPError{
		Code:    http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
