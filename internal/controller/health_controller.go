package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/evidark-org/evidark/internal/helper"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	redis Pinger
}

func NewHealthController(redis Pinger) *HealthController {
	return &HealthController{redis: redis}
}

// Healthz godoc
// @Summary      Liveness
// @Tags         health
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      503  {object}  helper.ResponseError
// @Router       /healthz [get]
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if c.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.redis.Ping(ctx); err != nil {
			helper.WriteError(w, helper.NewServiceUnavailableError(""))
			return
		}
	}
	helper.WriteSuccess(w, map[string]string{"status": "ok"})
}
