package health

import (
	"log/slog"
	"net/http"

	"github.com/fskhalsa/humidity-manager/pkg/utils"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (handler *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/health", handler.handlerHealthGet)
}

func (handler *Handler) handlerHealthGet(writer http.ResponseWriter, req *http.Request) {
	slog.Debug("enter handlerHealthGet")
	response := struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	}

	utils.RespondWithJSON(writer, http.StatusOK, response)
}
