package mongodb

import (
	"context"

	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

// Noop implementations back the disabled-database mode: resolution falls
// back to the in-memory store alone and dedup relies on the message id set.

type noopResolutionCache struct{}

func NewNoopResolutionCache() usecase.ResolutionCache {
	return noopResolutionCache{}
}

func (noopResolutionCache) Lookup(context.Context, string) (string, error) {
	return "", nil
}

func (noopResolutionCache) Store(context.Context, string, string) error {
	return nil
}

type noopEventDedup struct{}

func NewNoopEventDedup() usecase.EventDedup {
	return noopEventDedup{}
}

func (noopEventDedup) Seen(context.Context, string, string) (bool, error) {
	return false, nil
}

func (noopEventDedup) Record(context.Context, string, string) error {
	return nil
}
