package buildinfo

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// These vars are set at build time via ldflags:
// -X github.com/fintech-reviews/revload/pkg/buildinfo.Version=v0.3.1
// -X github.com/fintech-reviews/revload/pkg/buildinfo.Commit=1a2b3c4
// -X github.com/fintech-reviews/revload/pkg/buildinfo.BuildTime=2026-08-01T10:30:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for a service.
type Info struct {
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildTime   string `json:"build_time"`
	GoVersion   string `json:"go_version"`
}

// Get returns build info for the named service.
func Get(serviceName string) Info {
	return Info{
		ServiceName: serviceName,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}
}

// String returns a human-readable one-liner like "v0.3.1 (1a2b3c4, 2026-08-01T10:30:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// Handler returns an HTTP handler that responds with build info JSON. It is
// mounted on the metrics listener next to the Prometheus endpoint.
func Handler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := Get(serviceName)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
