package watch

import (
	"context"
	"os"
	"sync"
	"time"

	"namescrub/internal/errors"
	"namescrub/pkg/types"

	"github.com/sirupsen/logrus"
)

// Processor handles one file that arrived in the watched directory. ok is
// false when the file was skipped.
type Processor interface {
	Process(path string) (result types.RenameResult, ok bool)
}

// Status is a snapshot of a Service
type Status struct {
	Running        bool
	Directories    []string
	LastActivity   time.Time
	FilesProcessed int
	FilesFailed    int
}

// Service feeds every file arriving in a directory to a Processor, one at
// a time. Start begins collecting arrivals; Serve processes them.
type Service struct {
	log     logrus.FieldLogger
	watcher *Watcher
	proc    Processor

	mutex        sync.RWMutex
	processed    int
	failed       int
	lastActivity time.Time
}

// NewService creates a service handing arrivals to proc
func NewService(proc Processor, l logrus.FieldLogger) (*Service, error) {
	w, err := NewWatcher(l)
	if err != nil {
		return nil, err
	}
	return &Service{
		log:          l,
		watcher:      w,
		proc:         proc,
		lastActivity: time.Now(),
	}, nil
}

// Start watches dir. Arrivals are buffered until Serve runs, so files
// created while the caller does other work are not missed.
func (s *Service) Start(dir string) error {
	if err := s.watcher.AddDirectory(dir); err != nil {
		s.watcher.Stop()
		return err
	}
	if err := s.watcher.Start(); err != nil {
		s.watcher.Stop()
		return errors.Wrap(err, "error starting watcher")
	}
	return nil
}

// Serve processes arrivals until ctx is cancelled, then stops the watcher.
func (s *Service) Serve(ctx context.Context) error {
	defer s.watcher.Stop()

	arrivals := s.watcher.Arrivals()
	for {
		select {
		case <-ctx.Done():
			return nil
		case arrival, ok := <-arrivals:
			if !ok {
				return nil
			}
			s.handle(arrival)
		}
	}
}

func (s *Service) handle(arrival FileArrival) {
	entry := s.log.WithField("file", arrival.Path)

	// Arrivals buffered during an earlier pass may already be renamed.
	if _, err := os.Lstat(arrival.Path); os.IsNotExist(err) {
		entry.Debug("File gone before processing")
		return
	}
	entry.Debug("File arrived")

	result, ok := s.proc.Process(arrival.Path)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActivity = arrival.Timestamp
	if !ok {
		return
	}
	if result.Error != nil {
		s.failed++
	} else {
		s.processed++
	}
}

// Stop ends watching. Serve stops on its own when its context ends.
func (s *Service) Stop() {
	s.watcher.Stop()
}

// Status returns the current state of the service
func (s *Service) Status() Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return Status{
		Running:        s.watcher.IsRunning(),
		Directories:    s.watcher.Directories(),
		LastActivity:   s.lastActivity,
		FilesProcessed: s.processed,
		FilesFailed:    s.failed,
	}
}
