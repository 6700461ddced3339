package bootstrap

import (
	"context"
	"time"

	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 60 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in order:
// 1. No new requests accepted
// 2. Workers finish their current run
// 3. Consumers unblock and drain, buffered prediction logs flush
// 4. Producer closes after everything that publishes
// 5. Models are released, errors and logs flushed
// 6. Data stores last (other components may need them)
func (l *Lifecycle) Shutdown(c *Container) {
	log := c.Log
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP servers
	// ========================================
	log.Info("[1/8] Stopping HTTP servers...")
	httpTimeout := 15 * time.Second
	if c.Config != nil && c.Config.HTTP.ShutdownTimeout > 0 {
		httpTimeout = c.Config.HTTP.ShutdownTimeout
	}
	httpCtx, httpCancel := context.WithTimeout(shutdownCtx, httpTimeout)
	for _, srv := range c.Application.listeners() {
		if err := srv.Shutdown(httpCtx); err != nil {
			log.Error("HTTP server shutdown failed", "server", srv.Name(), "error", err)
		}
	}
	httpCancel()
	log.Info("✓ HTTP servers stopped")

	// ========================================
	// Step 2: Stop background workers
	// ========================================
	log.Info("[2/8] Stopping background workers...")
	if s := c.Background.WorkerScheduler; s != nil && s.IsRunning() {
		if err := s.Stop(); err != nil {
			log.Error("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	// ========================================
	// Step 3: Stop consumers
	// Cancel first, then close the reader to unblock ReadMessage
	// ========================================
	log.Info("[3/8] Stopping event consumers...")
	c.Cancel()
	if r := c.Background.PredictionLogReader; r != nil {
		if err := r.Close(); err != nil {
			log.Error("Kafka consumer close failed", "error", err)
		}
	}
	l.waitForGroup(c, 5*time.Second, log)

	if repo := c.Repos.PredictionLog; repo != nil {
		if err := repo.Stop(shutdownCtx); err != nil {
			log.Error("Prediction log flush failed", "error", err)
		} else {
			log.Info("✓ Prediction log flushed")
		}
	}

	// ========================================
	// Step 4: Close Kafka producer
	// ========================================
	log.Info("[4/8] Closing Kafka producer...")
	if p := c.Events.Producer; p != nil {
		if err := p.Close(); err != nil {
			log.Error("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	// ========================================
	// Step 5: Release models
	// ========================================
	log.Info("[5/8] Releasing models...")
	l.closeModels(c.Models, log)

	// ========================================
	// Step 6: Flush error tracker
	// ========================================
	log.Info("[6/8] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, c.ErrorTracker, log)

	// ========================================
	// Step 7: Close data stores
	// LAST - other components may need them during shutdown
	// ========================================
	log.Info("[7/8] Closing data stores...")
	l.closeDatabases(c, log)

	// ========================================
	// Step 8: Sync logs
	// ========================================
	log.Info("[8/8] Syncing logs...")
	log.Info("✅ Graceful shutdown complete")
	_ = logger.Sync()
}

// waitForGroup waits for listeners and consumers with a timeout
func (l *Lifecycle) waitForGroup(c *Container, timeout time.Duration, log *logger.Logger) {
	if c.group == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- c.group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn("background goroutine exited with error", "error", err)
		}
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warn("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) closeModels(m *Models, log *logger.Logger) {
	if m == nil || m.Registry == nil {
		return
	}
	if err := m.Registry.Close(); err != nil {
		log.Error("Model registry close failed", "error", err)
	}
	if m.RuntimeAvailable {
		if err := m.Runtime.Close(); err != nil {
			log.Error("ONNX runtime close failed", "error", err)
		}
	}
	log.Info("✓ Models released")
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Error("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

// closeDatabases closes the optional data stores
func (l *Lifecycle) closeDatabases(c *Container, log *logger.Logger) {
	var errs errors.MultiError

	if c.CH != nil {
		if err := c.CH.Close(); err != nil {
			errs.Add(errors.Wrap(err, "clickhouse"))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs.Add(errors.Wrap(err, "redis"))
		}
	}

	if errs.HasErrors() {
		log.Error("Data store close errors", "errors", errs.Errors)
	} else {
		log.Info("✓ Data stores closed")
	}
}
