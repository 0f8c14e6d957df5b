package evaluator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestProbabilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/failure-probability/PUMP_001":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(probabilityResponse{EquipmentID: "PUMP_001", Probability: 0.82})
		case "/v1/failure-probability/TURB_001":
			http.Error(w, "model not trained for equipment", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewPredictor(srv.URL, zerolog.Nop())

	got := p.Probabilities(t.Context(), []string{"PUMP_001", "TURB_001", "MOTOR_001"})
	if len(got) != 1 {
		t.Fatalf("Probabilities = %v, want only the scored equipment", got)
	}
	if got["PUMP_001"] != 0.82 {
		t.Fatalf("PUMP_001 probability = %v, want 0.82", got["PUMP_001"])
	}
	if _, ok := got["TURB_001"]; ok {
		t.Fatal("scoring failure must drop the entry, not report a value")
	}
}

func TestNewPredictorEmptyURL(t *testing.T) {
	if p := NewPredictor("", zerolog.Nop()); p != nil {
		t.Fatalf("NewPredictor with empty URL = %v, want nil", p)
	}
}
