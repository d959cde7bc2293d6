package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
	"github.com/fskhalsa/humidity-manager/pkg/utils"
)

const recentCycleLimit = 20

func NewHandler(m *mister.Mister, store StatusStore, originPatterns []string) *Handler {
	h := Handler{
		m,
		store,
		originPatterns,
	}

	return &h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/status", h.handlerStatusGet)
	mux.HandleFunc("/v1/status/ws", h.handleStatusWS)
}

func (h *Handler) handlerStatusGet(writer http.ResponseWriter, req *http.Request) {
	slog.Debug(">>handlerStatusGet")
	defer slog.Debug("<<handlerStatusGet")

	status := h.buildSystemStatus(req.Context())

	utils.RespondWithJSON(writer, http.StatusOK, status)
}

func (h *Handler) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	slog.Info(">>handleStatusWS: new incoming connection")
	opts := &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept error:", "error", err)
		return
	}

	defer c.Close(websocket.StatusInternalError, "Unexpected connection close")

	ctx := c.CloseRead(r.Context())

	h.monitorStatus(ctx, c)

	slog.Info("<<handleStatusWS")
}

func (h *Handler) monitorStatus(ctx context.Context, c *websocket.Conn) {
	slog.Info(">>monitorStatus")
	defer slog.Info("<<monitorStatus")

	ticker := time.NewTicker(5 * time.Second)
	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitorStatus: client disconnected")
			c.Close(websocket.StatusNormalClosure, "Connection closed")
			return

		case <-ticker.C:
			status := h.buildSystemStatus(ctx)

			err := wsjson.Write(ctx, c, status)
			if err != nil {
				slog.Error("monitorStatus: error writing to client", "error", err)
				c.Close(websocket.StatusInternalError, "error writing status")
				return
			}

		case <-heartbeatTicker.C:
			err := c.Ping(ctx)
			if err != nil {
				slog.Error("monitorStatus: error sending ping", "error", err)
				c.Close(websocket.StatusInternalError, "error sending ping")
				return
			}
		}
	}
}

func (h *Handler) buildSystemStatus(ctx context.Context) SystemStatus {
	snapshot := h.mister.Snapshot(time.Now().UTC())

	status := SystemStatus{
		Sensor:              snapshot.SensorName,
		Outlet:              snapshot.OutletName,
		LastCycle:           snapshot.Last,
		CooldownActive:      snapshot.CooldownActive,
		CooldownSecondsLeft: snapshot.CooldownRemaining.Seconds(),
	}

	if !snapshot.LastTriggeredAt.IsZero() {
		at := snapshot.LastTriggeredAt
		status.LastTriggeredAt = &at
	}

	if h.store != nil {
		cycles, err := h.store.RecentCycles(ctx, recentCycleLimit)
		if err != nil {
			status.RecentCyclesError = err.Error()
		}

		for _, cycle := range cycles {
			status.RecentCycles = append(status.RecentCycles, CycleStatus{
				At:       cycle.CreatedAt,
				Outcome:  cycle.Outcome,
				Humidity: cycle.Humidity,
				Minimum:  cycle.Minimum,
			})
		}
	}

	return status
}
