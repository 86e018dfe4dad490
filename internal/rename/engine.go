package rename

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"namescrub/internal/config"
	"namescrub/internal/console"
	"namescrub/internal/errors"
	"namescrub/internal/sanitize"
	"namescrub/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

const (
	// progressEvery is how many matched entries pass between progress lines.
	progressEvery = 10
	// listBatch is how many directory entries are read per ReadDir call.
	listBatch = 64
)

// Engine renames the matching files of one directory level.
type Engine struct {
	log       logrus.Ext1FieldLogger
	pauser    console.Pauser
	stdout    io.Writer
	stderr    io.Writer
	sanitize  sanitize.Func
	ext       string
	exclude   []glob.Glob
	dryRun    bool
	sorted    bool
	skipClean bool
	matched   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic sink.
func WithLogger(l logrus.Ext1FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithPauser sets the gate shown when the folder is missing and when the
// pass is finished.
func WithPauser(p console.Pauser) Option {
	return func(e *Engine) {
		e.pauser = p
	}
}

// WithConsole sets where prompts are written. The missing-folder prompt
// goes to stderr and the exit prompt to stdout.
func WithConsole(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithWholeName strips the extension dot along with everything else.
func WithWholeName(whole bool) Option {
	return func(e *Engine) {
		e.sanitize = sanitize.For(whole)
	}
}

// WithExclude skips entries whose name matches any of the globs.
func WithExclude(globs []glob.Glob) Option {
	return func(e *Engine) {
		e.exclude = globs
	}
}

// WithDryRun logs intended renames without touching the filesystem.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithSort processes entries in name order instead of directory order.
func WithSort(sorted bool) Option {
	return func(e *Engine) {
		e.sorted = sorted
	}
}

// WithSkipClean ignores matching entries whose name is already clean.
func WithSkipClean(skip bool) Option {
	return func(e *Engine) {
		e.skipClean = skip
	}
}

// New creates an engine matching ext. By default it logs nowhere and
// never pauses.
func New(ext string, opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Engine{
		log:      discard,
		pauser:   console.NoPause{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		sanitize: sanitize.Filename,
		ext:      ext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewWithConfig creates an engine from a run configuration.
func NewWithConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	exclude, err := cfg.ExcludeMatchers()
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithWholeName(cfg.WholeName),
		WithExclude(exclude),
		WithDryRun(cfg.DryRun),
		WithSort(cfg.Sort),
	}
	return New(cfg.Ext, append(base, opts...)...), nil
}

// IsDryRun returns whether the engine only simulates renames
func (e *Engine) IsDryRun() bool {
	return e.dryRun
}

// Run makes one pass over folder. A missing folder is reported and
// acknowledged but does not stop the pass: the listing that follows fails
// and that failure is returned. Per-entry problems are logged and skipped.
func (e *Engine) Run(folder string) (types.RunSummary, error) {
	summary := types.RunSummary{Folder: folder}
	e.matched = 0

	if _, err := os.Stat(folder); err != nil {
		e.log.Errorf("Folder %s does not exist", folder)
		e.pause(e.stderr, "argument")
	}

	dir, err := os.Open(folder)
	if err != nil {
		return summary, errors.NewFileError("failed to read directory", folder, errors.ListFailed, err)
	}
	defer dir.Close()

	handle := func(entry fs.DirEntry) {
		if r, ok := e.handle(folder, entry); ok {
			summary.Add(r)
		}
	}

	if e.sorted {
		err = e.listSorted(dir, handle)
	} else {
		err = e.list(dir, handle)
	}
	if err != nil {
		return summary, errors.NewFileError("failed to read directory", folder, errors.ListFailed, err)
	}

	if e.dryRun {
		e.log.Infof("Dry run: %d files would be renamed (%s)", summary.Matched, humanize.Bytes(uint64(summary.Bytes)))
	}
	e.log.Debug(summary.String())
	e.log.Info("Process finished.")
	e.pause(e.stdout, "stdin")

	return summary, nil
}

// Process runs a single path through the filter and the rename. ok is
// false when the path was skipped.
func (e *Engine) Process(path string) (result types.RenameResult, ok bool) {
	info, err := os.Lstat(path)
	if err != nil {
		e.log.Errorf("Failed to read entry: %v", err)
		return types.RenameResult{}, false
	}
	return e.handle(filepath.Dir(path), fs.FileInfoToDirEntry(info))
}

// Matches reports whether name carries the configured extension and is
// not excluded.
func (e *Engine) Matches(name string) bool {
	ext, ok := sanitize.Extension(name)
	if !ok || ext != e.ext {
		return false
	}
	for _, g := range e.exclude {
		if g.Match(name) {
			return false
		}
	}
	return true
}

func (e *Engine) handle(folder string, entry fs.DirEntry) (types.RenameResult, bool) {
	info, err := entry.Info()
	if err != nil {
		e.log.Errorf("Failed to read entry: %v", err)
		return types.RenameResult{}, false
	}

	name := entry.Name()
	if !e.Matches(name) {
		return types.RenameResult{}, false
	}
	if e.skipClean && sanitize.IsClean(e.sanitize, name) {
		return types.RenameResult{}, false
	}

	result := e.renameEntry(folder, name, info.Size())

	e.matched++
	if e.matched%progressEvery == 0 {
		e.log.Tracef("Processed %d files", e.matched)
	}
	return result, true
}

func (e *Engine) renameEntry(folder, name string, size int64) types.RenameResult {
	newName := e.sanitize(name)
	src := filepath.Join(folder, name)
	dest := filepath.Join(folder, newName)

	result := types.RenameResult{
		SourcePath:      src,
		DestinationPath: dest,
		DryRun:          e.dryRun,
		Size:            size,
	}

	e.log.Debugf("Matched %s (%s, %s)", name, humanize.Bytes(uint64(size)), contentType(src))
	e.log.Debugf("Expression: %s", sanitize.Disallowed)

	if e.dryRun {
		e.log.Infof("Would rename %s to %s", name, newName)
		return result
	}

	if err := MoveFile(src, dest); err != nil {
		result.Error = err
		e.log.Warnf("Failed to rename %s: %v", src, err)
		return result
	}

	result.Renamed = true
	e.log.Infof("Renamed %s to %s", name, newName)
	e.log.Infof("Renamed %s to %s", src, dest)
	return result
}

// MoveFile renames src to dest in place. It refuses to replace an existing
// dest, which a plain rename would silently do on POSIX systems.
func MoveFile(src, dest string) error {
	if filepath.Clean(src) != filepath.Clean(dest) {
		_, err := os.Lstat(dest)
		if err == nil {
			return errors.NewFileError("destination already exists", dest, errors.DestinationExists, nil)
		}
		if !os.IsNotExist(err) {
			return errors.FromOS("cannot check destination", dest, errors.RenameFailed, err)
		}
	}

	if err := os.Rename(src, dest); err != nil {
		return errors.FromOS("rename failed", src, errors.RenameFailed, err)
	}
	return nil
}

// contentType sniffs the file header for the debug log
func contentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	return mt.String()
}

// pause shows the exit prompt on w. source names the prompt in the error
// line logged when the acknowledgement cannot be read.
func (e *Engine) pause(w io.Writer, source string) {
	if err := e.pauser.Pause(w, console.ExitPrompt); err != nil {
		e.log.Errorf("Error reading from %s: %v", source, err)
	}
}

// list feeds entries to fn in directory order. A failure on the first
// read is returned; later failures are logged and end the listing.
func (e *Engine) list(dir *os.File, fn func(fs.DirEntry)) error {
	first := true
	for {
		batch, err := dir.ReadDir(listBatch)
		for _, entry := range batch {
			fn(entry)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if first && len(batch) == 0 {
				return err
			}
			e.log.Errorf("Failed to read entry: %v", err)
			return nil
		}
		first = false
	}
}

func (e *Engine) listSorted(dir *os.File, fn func(fs.DirEntry)) error {
	var entries []fs.DirEntry
	if err := e.list(dir, func(entry fs.DirEntry) {
		entries = append(entries, entry)
	}); err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		fn(entry)
	}
	return nil
}
