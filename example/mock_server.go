package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// mockNode describes one simulated fleet member.
type mockNode struct {
	app     string
	version string
	mode    string // ok, error, garbage, slow
}

// StartMockFleet serves /status for every node on its own loopback port and
// returns the host:port of each node, in order. Call stop to shut the
// fleet down.
func StartMockFleet(nodes []mockNode) (hosts []string, stop func(), err error) {
	var servers []*http.Server
	stop = func() {
		for _, s := range servers {
			_ = s.Close()
		}
	}

	for _, node := range nodes {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			stop()
			return nil, nil, err
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/status", statusHandler(node))
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		servers = append(servers, srv)

		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				slog.Error("mock node error", "addr", ln.Addr().String(), "error", err)
			}
		}()
		hosts = append(hosts, ln.Addr().String())
	}

	return hosts, stop, nil
}

func statusHandler(node mockNode) http.HandlerFunc {
	started := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		switch node.mode {
		case "error":
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		case "garbage":
			_, _ = w.Write([]byte("<html>maintenance</html>"))
			return
		case "slow":
			// longer than the example's per-attempt timeout
			time.Sleep(2 * time.Second)
		}

		success := rand.Intn(1000)
		errs := rand.Intn(20)

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"Application":   node.app,
			"Version":       node.version,
			"Uptime":        int64(time.Since(started).Seconds()),
			"Request_Count": success + errs,
			"Error_Count":   errs,
			"Success_Count": success,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	}
}
