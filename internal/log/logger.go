// Package log builds the diagnostic sink for a rename run: a logrus logger
// that stamps every line with the wall clock of a fixed civil timezone and
// fans out to stdout and, optionally, an append-mode log file.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"namescrub/internal/errors"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTag is printed between the pipes when an entry has no target field.
	DefaultTag = "namescrub"
	// DefaultTimezone is the zone log timestamps are rendered in.
	DefaultTimezone = "Europe/Moscow"
	// DefaultFile is the log file written when file logging is enabled.
	DefaultFile = "logs.log"
	// TargetField overrides the source tag of a single entry.
	TargetField = "target"
)

var levelNames = map[logrus.Level]string{
	logrus.TraceLevel: "TRACE",
	logrus.DebugLevel: "DEBUG",
	logrus.InfoLevel:  "INFO",
	logrus.WarnLevel:  "WARN",
	logrus.ErrorLevel: "ERROR",
	logrus.FatalLevel: "FATAL",
	logrus.PanicLevel: "PANIC",
}

// Formatter renders entries as "[HH:MM:SS LEVEL |tag|] message".
type Formatter struct {
	Location *time.Location
	Tag      string
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	tag := f.Tag
	if tag == "" {
		tag = DefaultTag
	}
	if v, ok := entry.Data[TargetField].(string); ok && v != "" {
		tag = v
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	now := entry.Time.In(loc)
	fmt.Fprintf(b, "[%02d:%02d:%02d %s |%s|] %s",
		now.Hour(), now.Minute(), now.Second(),
		levelName(entry.Level), tag, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != TargetField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(level logrus.Level) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return strings.ToUpper(level.String())
}

// Logger is a logrus logger that may own an open log file.
type Logger struct {
	*logrus.Logger
	file *os.File
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

type options struct {
	output   io.Writer
	file     string
	level    logrus.Level
	location *time.Location
	tag      string
}

// Option configures New.
type Option func(*options)

// WithOutput replaces stdout as the console sink.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithFile additionally appends every line to path.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level logrus.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithLocation sets the timezone timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithTag sets the default source tag.
func WithTag(tag string) Option {
	return func(o *options) {
		o.tag = tag
	}
}

// New builds a logger. Without options it logs debug and above to stdout
// in Europe/Moscow time.
func New(opts ...Option) (*Logger, error) {
	o := options{
		output: os.Stdout,
		level:  logrus.DebugLevel,
		tag:    DefaultTag,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.location == nil {
		loc, err := LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, err
		}
		o.location = loc
	}

	l := &Logger{Logger: logrus.New()}
	out := o.output
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.FromOS("failed to open log file", o.file, errors.LoggerInitFailed, err)
		}
		l.file = f
		out = io.MultiWriter(o.output, f)
	}

	l.SetOutput(out)
	l.SetLevel(o.level)
	l.SetFormatter(&Formatter{Location: o.location, Tag: o.tag})
	return l, nil
}

// LoadLocation resolves an IANA zone name using the embedded tz database
// when the host has none.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.NewConfigError("unknown timezone", name, errors.InvalidConfig, err)
	}
	return loc, nil
}

// ParseLevel accepts trace, debug, info, warn and error.
func ParseLevel(s string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.DebugLevel, errors.NewConfigError("invalid log level", s, errors.InvalidConfig, err)
	}
	return level, nil
}
