package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/feedapi"
	"github.com/nguyentranbao-ct/feed-client/internal/server"
	"github.com/nguyentranbao-ct/feed-client/internal/store"
	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newResolutionCache,
			newEventDedup,
			newRealtimeChannel,

			store.NewConversationStore,
			store.NewPostStore,

			feedapi.NewClient,

			usecase.NewConversationResolver,
			usecase.NewChatUsecase,
			usecase.NewMutationEngine,
			usecase.NewRealtimeReconciler,

			server.NewController,
			server.NewStreamHub,
			newNotifier,
		),
		fx.Supply(conf),
		fx.Invoke(startReconciler),
		fx.Invoke(funcs...),
	)
}

func newNotifier(hub *server.StreamHub) usecase.Notifier {
	return hub
}

func startReconciler(rec usecase.RealtimeReconciler) {
	rec.Start()
}
