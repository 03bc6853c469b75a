package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// The API logs one JSON object per line on stdout: request_complete entries
// from the HTTP middleware, audit events from the admin surface, and
// operational lines from background jobs all share the same stream. The
// logger carries no prefix or flags because every entry stamps its own ts.

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide line logger.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// Line emits one structured entry with ts, level and msg stamped, merging in
// any extra fields. Reserved keys in fields are overwritten.
func Line(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log entry marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// LogRequest writes a pre-assembled request entry verbatim. The middleware
// owns the field set; a marshal failure degrades to an error line instead of
// dropping the record silently.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Line("error", "request log marshal failed", nil)
		return
	}
	Logger().Println(string(data))
}
