package cache

import "context"

// Noop используется когда Redis не настроен или недоступен.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string, dest any) bool { return false }

func (Noop) Set(ctx context.Context, key string, value any) {}

func (Noop) Invalidate(ctx context.Context, patterns ...string) {}
