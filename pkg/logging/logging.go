package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Fields are the typed attributes attached to a log line. Empty values are
// omitted.
type Fields struct {
	UserID     string `json:"user_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	PaymentID  string `json:"payment_id,omitempty"`
	Reference  string `json:"reference,omitempty"`
	VariantID  string `json:"variant_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
	Step       string `json:"step,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Logger writes one line per entry, JSON by default.
type Logger struct {
	service string
	json    bool
	mu      sync.Mutex
	out     io.Writer
	now     func() time.Time
}

func New(service string, jsonOutput bool) *Logger {
	return NewWithWriter(service, jsonOutput, os.Stdout)
}

func NewWithWriter(service string, jsonOutput bool, w io.Writer) *Logger {
	return &Logger{service: service, json: jsonOutput, out: w, now: time.Now}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("nop", true, io.Discard)
}

func (l *Logger) Info(msg string, f Fields)  { l.log(LevelInfo, msg, f) }
func (l *Logger) Warn(msg string, f Fields)  { l.log(LevelWarn, msg, f) }
func (l *Logger) Error(msg string, f Fields) { l.log(LevelError, msg, f) }

func (l *Logger) log(level Level, msg string, f Fields) {
	if l == nil {
		return
	}
	payload := map[string]any{
		"level":     level,
		"service":   l.service,
		"message":   msg,
		"timestamp": l.now().UTC().Format(time.RFC3339Nano),
	}
	raw, _ := json.Marshal(f)
	var extra map[string]any
	_ = json.Unmarshal(raw, &extra)
	for k, v := range extra {
		payload[k] = v
	}

	var line string
	if l.json {
		data, err := json.Marshal(payload)
		if err != nil {
			line = fmt.Sprintf(`{"service":%q,"level":"error","message":"log_error","error":%q}`, l.service, err.Error())
		} else {
			line = string(data)
		}
	} else {
		line = plain(payload)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line+"\n")
}

func plain(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == "timestamp" || k == "level" || k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %q", payload["timestamp"], strings.ToUpper(fmt.Sprint(payload["level"])), payload["message"])
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, payload[k])
	}
	return b.String()
}
