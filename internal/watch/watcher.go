package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"namescrub/internal/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FileArrival is a regular file that appeared in a watched directory
type FileArrival struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher reports files created in, or renamed into, a set of directories.
// Subdirectories are not followed.
type Watcher struct {
	log logrus.FieldLogger

	// Directories being watched
	directories []string

	arrivals chan FileArrival
	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// NewWatcher creates a directory watcher that logs to l
func NewWatcher(l logrus.FieldLogger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		log:         l,
		directories: []string{},
		arrivals:    make(chan FileArrival, 64),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory starts watching dir
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.FromOS("error accessing directory", dir, errors.InvalidPath, err)
	}
	if !info.IsDir() {
		return errors.NewFileError(fmt.Sprintf("%s is not a directory", dir), dir, errors.InvalidPath, nil)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to add directory %s to watcher", dir)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	w.log.WithField("directory", dir).Info("Watching directory")
	return nil
}

// Arrivals delivers new files. It is closed once the watcher stops.
func (w *Watcher) Arrivals() <-chan FileArrival {
	return w.arrivals
}

// Start launches the event loop
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	if w.stopped {
		return errors.New("watcher already stopped")
	}
	w.running = true

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.arrivals)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// A file renamed into the directory shows up as Create.
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Lstat(event.Name)
			if err != nil {
				if !os.IsNotExist(err) {
					w.log.WithField("file", event.Name).WithError(err).Error("Error stating file")
				}
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}

			arrival := FileArrival{
				Path:      event.Name,
				Info:      info,
				Timestamp: time.Now(),
				Op:        event.Op,
			}
			select {
			case w.arrivals <- arrival:
			case <-w.stopChan:
				return
			default:
				w.log.WithField("file", event.Name).Warn("Event channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// Stop halts the event loop and closes Arrivals. It is safe to call more
// than once, and before Start.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.stopped = true
	close(w.stopChan)
	w.mutex.Unlock()

	if wasRunning {
		<-w.done
	} else {
		close(w.arrivals)
	}
	if err := w.fsWatcher.Close(); err != nil {
		w.log.WithError(err).Error("Error closing fsnotify watcher")
	}
	w.log.Debug("Watcher stopped.")
}

// IsRunning returns whether the event loop is active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the directories being watched
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, len(w.directories))
	copy(dirs, w.directories)
	return dirs
}
