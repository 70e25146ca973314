package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

type LogRequestConfig struct {
	Logger       Logger
	Enabled      func(c echo.Context) bool
	RequestID    func(c echo.Context) string
	QueryParams  func(c echo.Context) bool
	KeyAndValues func(c echo.Context) []interface{}
}

var DefaultLogRequestConfig = LogRequestConfig{
	Enabled:   func(echo.Context) bool { return true },
	RequestID: GetRequestID,
	QueryParams: func(echo.Context) bool {
		return true
	},
}

// LogRequest logs one line per request with latency, status and request id.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Enabled == nil {
		config.Enabled = DefaultLogRequestConfig.Enabled
	}
	if config.RequestID == nil {
		config.RequestID = DefaultLogRequestConfig.RequestID
	}
	if config.QueryParams == nil {
		config.QueryParams = DefaultLogRequestConfig.QueryParams
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !config.Enabled(c) {
				return next(c)
			}

			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := []interface{}{
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", config.RequestID(c),
			}
			if config.QueryParams(c) && req.URL.RawQuery != "" {
				args = append(args, "query", req.URL.RawQuery)
			}
			if config.KeyAndValues != nil {
				args = append(args, config.KeyAndValues(c)...)
			}

			if err != nil {
				args = append(args, "error", err.Error())
				config.Logger.Warnw("http request", args...)
				return nil
			}
			config.Logger.Infow("http request", args...)
			return nil
		}
	}
}
