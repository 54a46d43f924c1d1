package statusapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/version"
)

// Route paths.
const (
	PathStatus    = "/status"
	PathComponent = "/status/:name"
	PathHealth    = "/healthz"
	PathReady     = "/readyz"
	PathRestart   = "/components/:name/restart"
	PathReset     = "/components/:name/reset"
)

// Controller is the orchestrator surface the API exposes.
type Controller interface {
	GetStatus(name string) (component.Status, error)
	Statuses() []component.Status
	Running() bool
	Ready() bool
	RestartComponent(ctx context.Context, name string) error
	ResetComponent(name string) error
}

// ComponentView is the JSON form of a component status.
type ComponentView struct {
	component.Status
	Uptime string `json:"uptime,omitempty"`
}

// StatusView is the body of GET /status.
type StatusView struct {
	Service    string          `json:"service"`
	Version    string          `json:"version"`
	Running    bool            `json:"running"`
	Ready      bool            `json:"ready"`
	Timestamp  string          `json:"timestamp"`
	Components []ComponentView `json:"components"`
}

// ReadinessView is the body of GET /readyz.
type ReadinessView struct {
	Status  string   `json:"status"`
	Service string   `json:"service"`
	Waiting []string `json:"waiting,omitempty"`
}

func registerRoutes(r gin.IRouter, h *handlers) {
	r.GET(PathStatus, h.status)
	r.GET(PathComponent, h.component)
	r.GET(PathHealth, h.health)
	r.GET(PathReady, h.ready)
	r.POST(PathRestart, h.restart)
	r.POST(PathReset, h.reset)
}

type handlers struct {
	service string
	ctrl    Controller
}

func newView(st component.Status) ComponentView {
	v := ComponentView{Status: st}
	if st.Uptime > 0 {
		v.Uptime = st.Uptime.Round(time.Second).String()
	}
	return v
}

func (h *handlers) status(c *gin.Context) {
	statuses := h.ctrl.Statuses()
	views := make([]ComponentView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, newView(st))
	}
	RespondOK(c, StatusView{
		Service:    h.service,
		Version:    version.Short(),
		Running:    h.ctrl.Running(),
		Ready:      h.ctrl.Ready(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: views,
	})
}

func (h *handlers) component(c *gin.Context) {
	st, err := h.ctrl.GetStatus(c.Param("name"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, newView(st))
}

// health answers 503 when any required component is down. Optional
// components only degrade the result.
func (h *handlers) health(c *gin.Context) {
	sh := observability.NewServiceHealth(h.service, version.Short())
	for _, st := range h.ctrl.Statuses() {
		sh.AddComponent(observability.HealthFromStatus(st))
	}
	code := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, sh)
}

// ready answers 200 once every required component is RUNNING.
func (h *handlers) ready(c *gin.Context) {
	if h.ctrl.Ready() {
		c.JSON(http.StatusOK, ReadinessView{Status: "ready", Service: h.service})
		return
	}
	var waiting []string
	for _, st := range h.ctrl.Statuses() {
		if !st.Optional && st.State != component.StateRunning {
			waiting = append(waiting, st.Name)
		}
	}
	c.JSON(http.StatusServiceUnavailable, ReadinessView{Status: "not_ready", Service: h.service, Waiting: waiting})
}

func (h *handlers) restart(c *gin.Context) {
	// A client disconnect must not abandon a restart half way.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.ctrl.RestartComponent(ctx, c.Param("name")); err != nil {
		RespondWithError(c, err)
		return
	}
	h.component(c)
}

func (h *handlers) reset(c *gin.Context) {
	if err := h.ctrl.ResetComponent(c.Param("name")); err != nil {
		RespondWithError(c, err)
		return
	}
	h.component(c)
}
