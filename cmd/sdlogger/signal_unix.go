//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// watchToggleSignal calls press for every SIGUSR1 until ctx is done.
func watchToggleSignal(ctx context.Context, log logger.Logger, press func()) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGUSR1)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigs:
			log.Info("SIGUSR1 received, toggling logging")
			press()
		}
	}
}
