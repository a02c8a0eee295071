// Standalone mock fleet for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockfleet
//
// Then in another terminal:
//
//	go run ./cmd/clusterstats -i example/servers.txt -f 4 -v
//	go run ./cmd/clusterstats -c example/run.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

type node struct {
	port    int
	app     string
	version string
}

var fleet = []node{
	{9001, "Webapp1", "1.0.0"},
	{9002, "Webapp1", "1.0.0"},
	{9003, "Webapp1", "1.0.1"},
	{9004, "Cache1", "2.1.0"},
	{9005, "Cache1", "2.1.0"},
	{9006, "Cache1", "2.2.0"},
}

// modes each node cycles through
var modes = []string{"ok", "ok", "ok", "error", "garbage"}

func main() {
	fmt.Println("Mock fleet starting on ports 9001-9006")
	fmt.Println("Nodes cycle through: ok → 503 → non-JSON body")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	errCh := make(chan error, len(fleet))
	for _, n := range fleet {
		mux := http.NewServeMux()
		mux.HandleFunc("/status", handler(n))
		srv := &http.Server{
			Addr:              fmt.Sprintf("localhost:%d", n.port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() { errCh <- srv.ListenAndServe() }()
	}

	err := <-errCh
	slog.Error("server error", "error", err)
	os.Exit(1)
}

func handler(n node) http.HandlerFunc {
	var (
		mu           sync.Mutex
		modeIdx      = 0
		nextChangeAt = time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second)
		started      = time.Now()
	)

	return func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(20+rand.Intn(100)) * time.Millisecond)

		mu.Lock()
		if time.Now().After(nextChangeAt) {
			old := modes[modeIdx]
			modeIdx = (modeIdx + 1) % len(modes)
			nextChangeAt = time.Now().Add(time.Duration(10+rand.Intn(21)) * time.Second)
			slog.Info("mode change", "port", n.port, "from", old, "to", modes[modeIdx])
		}
		mode := modes[modeIdx]
		mu.Unlock()

		switch mode {
		case "error":
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		case "garbage":
			_, _ = w.Write([]byte("<html>maintenance</html>"))
			return
		}

		success := rand.Intn(1000)
		errs := rand.Intn(20)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Application":   n.app,
			"Version":       n.version,
			"Uptime":        int64(time.Since(started).Seconds()),
			"Request_Count": success + errs,
			"Error_Count":   errs,
			"Success_Count": success,
		})
	}
}
