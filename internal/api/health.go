package api

import (
	"context"
	"net/http"
	"time"

	"github.com/localwhisper/whisper-stt/internal/stt"
)

const probeTimeout = 3 * time.Second

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	ASRURL        string            `json:"asr_url"`
	Checks        map[string]string `json:"checks"`
	Sessions      stt.SessionStats  `json:"sessions"`
}

// Backend is the engine state the health endpoint reports on.
type Backend interface {
	BaseURL() string
	Stats() stt.SessionStats
}

type HealthHandler struct {
	backend   Backend
	client    *http.Client
	version   string
	startTime time.Time
}

func NewHealthHandler(backend Backend, client *http.Client, version string, startTime time.Time) *HealthHandler {
	if client == nil {
		client = &http.Client{}
	}
	return &HealthHandler{
		backend:   backend,
		client:    client,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"

	// ASR reachability: any HTTP answer means the service is up.
	if err := h.probe(r.Context()); err != nil {
		checks["asr"] = "unreachable"
		status = "degraded"
	} else {
		checks["asr"] = "ok"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		ASRURL:        h.backend.BaseURL(),
		Checks:        checks,
		Sessions:      h.backend.Stats(),
	})
}

func (h *HealthHandler) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.backend.BaseURL(), nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
