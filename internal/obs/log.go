package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

const serviceName = "signhub-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide JSON line logger. It writes to stderr so
// request and audit lines never interleave with CLI output on stdout.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stderr, "", 0)
	})
	return logger
}

// LogRequest emits one JSON line per HTTP request. The service field is
// stamped here so lines stay attributable when several components share one
// log stream.
func LogRequest(fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if _, ok := fields["service"]; !ok {
		fields["service"] = serviceName
	}
	data, err := json.Marshal(fields)
	if err != nil {
		Logger().Println(`{"service":"` + serviceName + `","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
