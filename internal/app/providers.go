package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/realtime"
	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

// durableDB connects once and is shared by both durable caches. Connection
// happens lazily inside the providers so the disabled mode never dials.
var durableDB *mongodb.DB

func connectDB(lc fx.Lifecycle, conf *config.Config) (*mongodb.DB, error) {
	if durableDB != nil {
		return durableDB, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, conf.Database)
	if err != nil {
		return nil, fmt.Errorf("connect durable cache: %w", err)
	}
	durableDB = db

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			durableDB = nil
			return db.Close(ctx)
		},
	})
	return db, nil
}

func newResolutionCache(lc fx.Lifecycle, conf *config.Config) (usecase.ResolutionCache, error) {
	if !conf.Database.Enabled {
		return mongodb.NewNoopResolutionCache(), nil
	}
	db, err := connectDB(lc, conf)
	if err != nil {
		return nil, err
	}
	return mongodb.NewResolutionCache(db), nil
}

func newEventDedup(lc fx.Lifecycle, conf *config.Config) (usecase.EventDedup, error) {
	if !conf.Database.Enabled {
		return mongodb.NewNoopEventDedup(), nil
	}
	db, err := connectDB(lc, conf)
	if err != nil {
		return nil, err
	}
	return mongodb.NewEventDedup(db), nil
}

func newRealtimeChannel(lc fx.Lifecycle, conf *config.Config) usecase.RealtimeChannel {
	client := realtime.NewClient(conf)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := client.Run(context.Background()); err != nil {
					log.Warnw(ctx, "realtime channel stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
