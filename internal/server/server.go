package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/feed-client/internal/server/middleware"
)

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler Controller,
	stream *StreamHub,
) {
	e := echo.New()
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler()

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.CORS(regexp.MustCompile(conf.Server.CORSOriginPattern)))
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", handler.Health)
	e.GET("/stream", stream.Handler)

	api := e.Group("/api/v1")
	api.GET("/conversations", handler.ListConversations)
	api.POST("/conversations/open", handler.OpenConversation)
	api.DELETE("/conversations/:id", handler.CloseConversation)
	api.POST("/messages", handler.SendMessage)
	api.GET("/drafts", handler.GetDraft)

	api.GET("/posts/:id", handler.GetPost)
	api.POST("/posts/:id/reactions", handler.ReactToPost)
	api.DELETE("/posts/:id/reactions", handler.UnreactPost)
	api.POST("/posts/:id/comments", handler.CreateComment)
	api.POST("/posts/:id/share", handler.SharePost)
	api.POST("/comments/:id/reactions", handler.ReactToNode)
	api.POST("/comments/:id/replies", handler.CreateReply)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
