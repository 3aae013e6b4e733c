package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logrus instance.
var Logger = logrus.New()
var once sync.Once

// Options controls where and how verbosely the logger writes.
type Options struct {
	SystemName string
	File       string
	Level      string
	Stdout     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// CustomFormatter writes one "Key: value" line per entry.
type CustomFormatter struct {
	SystemName string
	Location   *time.Location
	NewEventID func() string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	localTime := entry.Time.In(loc)

	eventID := uuid.New().String
	if f.NewEventID != nil {
		eventID = f.NewEventID
	}

	fmt.Fprintf(b, "Date: %s, Time: %s, ", localTime.Format("2006-01-02"), localTime.Format("15:04:05"))
	fmt.Fprintf(b, "Event Source: %s, ", f.SystemName)
	fmt.Fprintf(b, "Event Type: %s, ", strings.ToUpper(entry.Level.String()))
	fmt.Fprintf(b, "Event ID: %s, ", eventID())
	fmt.Fprintf(b, "Message: %s", entry.Message)

	for _, key := range sortedKeys(entry.Data) {
		fmt.Fprintf(b, ", %s: %v", key, entry.Data[key])
	}

	if entry.HasCaller() {
		fmt.Fprintf(b, ", Location: %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// InitLogger configures Logger once. Later calls are no-ops.
func InitLogger(opts Options) {
	once.Do(func() {
		configure(Logger, opts)
		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, output to: %s", opts.SystemName, opts.File)
	})
}

func configure(l *logrus.Logger, opts Options) {
	var writers []io.Writer
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				logrus.Fatalf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory: %v", err)
			}
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
	}
	if opts.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))

	l.SetFormatter(&CustomFormatter{SystemName: opts.SystemName})

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(true)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
