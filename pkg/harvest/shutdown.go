package harvest

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"subharvest/pkg/logger"
)

// Shutdown is a process-wide stop flag set by interrupt signals and polled
// cooperatively by the harvest loop. The flag transitions at most once per
// process lifetime (clear to set), so a plain atomic read on each iteration
// is race-free.
type Shutdown struct {
	flag   atomic.Bool
	once   sync.Once
	logger logger.Logger
}

// NewShutdown creates a new shutdown flag, initially clear
func NewShutdown() *Shutdown {
	return &Shutdown{
		logger: logger.GetLogger(),
	}
}

// Register installs the SIGINT/SIGTERM listener. Safe to call more than
// once; the listener is installed exactly once.
func (s *Shutdown) Register() {
	s.once.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-ch
			s.logger.WithField("signal", sig.String()).Info("received shutdown signal, exiting gracefully")
			s.Trigger()
		}()
	})
}

// Trigger sets the flag. Idempotent.
func (s *Shutdown) Trigger() {
	s.flag.Store(true)
}

// ShouldStop reports whether shutdown was requested. Never blocks.
func (s *Shutdown) ShouldStop() bool {
	return s.flag.Load()
}
