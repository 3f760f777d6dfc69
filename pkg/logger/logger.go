package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger represents a leveled key/value logger
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

type logLevel int

const (
	debugLevel logLevel = iota
	infoLevel
	warnLevel
	errorLevel
)

var levelNames = map[logLevel]string{
	debugLevel: "DEBUG",
	infoLevel:  "INFO",
	warnLevel:  "WARN",
	errorLevel: "ERROR",
}

// Options configures a logger
type Options struct {
	Level   string
	Format  string // "text" or "json"
	Service string
	Out     io.Writer
	ErrOut  io.Writer
}

type simpleLogger struct {
	out     io.Writer
	errOut  io.Writer
	level   logLevel
	json    bool
	service string
	fields  []interface{}
	mu      *sync.Mutex
	now     func() time.Time
}

func parseLevel(level string) logLevel {
	switch strings.ToLower(level) {
	case "debug":
		return debugLevel
	case "warn", "warning":
		return warnLevel
	case "error":
		return errorLevel
	default:
		return infoLevel
	}
}

// NewLogger creates a text logger writing to stdout/stderr at the given level
func NewLogger(level string) Logger {
	return New(Options{Level: level})
}

// New creates a logger from options
func New(opts Options) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	errOut := opts.ErrOut
	if errOut == nil {
		errOut = out
		if opts.Out == nil {
			errOut = os.Stderr
		}
	}

	return &simpleLogger{
		out:     out,
		errOut:  errOut,
		level:   parseLevel(opts.Level),
		json:    strings.EqualFold(opts.Format, "json"),
		service: opts.Service,
		mu:      &sync.Mutex{},
		now:     time.Now,
	}
}

func (l *simpleLogger) Debug(msg string, keyvals ...interface{}) {
	l.log(debugLevel, msg, keyvals)
}

func (l *simpleLogger) Info(msg string, keyvals ...interface{}) {
	l.log(infoLevel, msg, keyvals)
}

func (l *simpleLogger) Warn(msg string, keyvals ...interface{}) {
	l.log(warnLevel, msg, keyvals)
}

func (l *simpleLogger) Error(msg string, keyvals ...interface{}) {
	l.log(errorLevel, msg, keyvals)
}

// With returns a logger that prefixes every entry with keyvals
func (l *simpleLogger) With(keyvals ...interface{}) Logger {
	child := *l
	child.fields = append(append([]interface{}{}, l.fields...), keyvals...)
	return &child
}

func (l *simpleLogger) log(level logLevel, msg string, keyvals []interface{}) {
	if level < l.level {
		return
	}

	all := keyvals
	if len(l.fields) > 0 {
		all = append(append([]interface{}{}, l.fields...), keyvals...)
	}

	var line string
	if l.json {
		line = l.formatJSON(level, msg, all)
	} else {
		line = l.formatText(level, msg, all)
	}

	w := l.out
	if level == errorLevel {
		w = l.errOut
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

func (l *simpleLogger) formatText(level logLevel, msg string, keyvals []interface{}) string {
	var b strings.Builder

	b.WriteString(levelNames[level])
	b.WriteString(": ")
	b.WriteString(l.now().Format("2006/01/02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(formatMsg(msg, keyvals...))

	return b.String()
}

func (l *simpleLogger) formatJSON(level logLevel, msg string, keyvals []interface{}) string {
	entry := map[string]interface{}{
		"timestamp": l.now().UTC().Format(time.RFC3339Nano),
		"level":     levelNames[level],
		"message":   msg,
	}

	if l.service != "" {
		entry["service"] = l.service
	}

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])

		if i+1 >= len(keyvals) {
			entry[key] = "missing"
			continue
		}

		switch v := keyvals[i+1].(type) {
		case error:
			entry[key] = v.Error()
		case fmt.Stringer:
			entry[key] = v.String()
		default:
			entry[key] = v
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":"unencodable log entry: %v"}`, err)
	}

	return string(data)
}

func formatMsg(msg string, keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}

	formattedMsg := msg

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := "missing"

		if i+1 < len(keyvals) {
			value = fmt.Sprintf("%v", keyvals[i+1])
		}

		formattedMsg += " " + key + "=" + value
	}

	return formattedMsg
}

type nopLogger struct{}

// NewNop returns a logger that discards everything
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (n nopLogger) With(...interface{}) Logger { return n }
