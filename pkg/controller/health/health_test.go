package health

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fskhalsa/humidity-manager/pkg/utils"
)

func TestHandlerHealthGet(t *testing.T) {
	handler := NewHandler()

	rr := utils.TestRequest(t, http.MethodGet, "/v1/health", nil, handler.handlerHealthGet)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var response struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status ok, got %q", response.Status)
	}
}
