package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"os"
	"streakd/internal/persistence/interfaces"
	"streakd/internal/services"
	"streakd/internal/structures"
	"time"
)

type HealthController struct {
	service   services.EngagementServiceInterface
	scheduler interfaces.SchedulerInterface
	dataDir   string
	startTime time.Time
}

type healthResponse struct {
	Status        string     `json:"status"`
	Uptime        string     `json:"uptime"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	Profiles      int        `json:"profiles"`
	DataDir       string     `json:"data_dir"`
	LastSweep     *time.Time `json:"last_sweep,omitempty"`
}

// Health reports degraded with 503 once the data dir is gone or no longer a
// directory, since every engine write would then be dropped.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Profiles:      len(hc.service.Profiles()),
		DataDir:       dataDirStatus(hc.dataDir),
	}
	if last := hc.scheduler.LastSweep(); !last.IsZero() {
		resp.LastSweep = &last
	}

	status := http.StatusOK
	if resp.DataDir != "ok" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, gson)
}

func dataDirStatus(dir string) string {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return "missing"
	case err != nil:
		return "unreadable"
	case !info.IsDir():
		return "not a directory"
	}
	return "ok"
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.EngagementServiceInterface, scheduler interfaces.SchedulerInterface, conf *structures.Config) *HealthController {
	return &HealthController{
		service:   service,
		scheduler: scheduler,
		dataDir:   conf.Persistence.Dir,
		startTime: time.Now(),
	}
}
