//go:build !unix

package main

import (
	"context"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// watchToggleSignal waits for ctx; there is no toggle signal on this platform.
func watchToggleSignal(ctx context.Context, _ logger.Logger, _ func()) error {
	<-ctx.Done()
	return nil
}
