package main

import (
	"os"
	"os/signal"
	"syscall"

	"smartkitchen/internal/bootstrap"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Log.Errorf("failed to start: %v", err)
		container.Shutdown()
		os.Exit(1)
	}

	waitForShutdown(container)
	container.Shutdown()
}

// waitForShutdown blocks until a signal arrives or a listener fails
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Info("Shutdown signal received", "signal", sig.String())
	case <-c.Done():
		c.Log.Warn("Container stopped unexpectedly, shutting down")
	}
}
