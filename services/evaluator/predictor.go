package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Predictor fetches failure probabilities from the external ML scoring
// service. A nil Predictor means no model is deployed and threshold rules
// run alone.
type Predictor struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewPredictor builds a Predictor against the given base URL, e.g.
// http://predictor:9000. Returns nil when the URL is empty.
func NewPredictor(baseURL string, log zerolog.Logger) *Predictor {
	if baseURL == "" {
		return nil
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2)

	return &Predictor{client: client, log: log}
}

type probabilityResponse struct {
	EquipmentID string  `json:"equipment_id"`
	Probability float64 `json:"probability"`
}

// Probabilities returns a failure probability per equipment id. A scoring
// failure for one equipment drops that entry; it never reports a zero
// probability, since "model unreachable" and "no failure predicted" are
// different statements.
func (p *Predictor) Probabilities(ctx context.Context, equipmentIDs []string) map[string]float64 {
	if p == nil {
		return nil
	}

	out := make(map[string]float64, len(equipmentIDs))
	for _, id := range equipmentIDs {
		var result probabilityResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetResult(&result).
			Get(fmt.Sprintf("/v1/failure-probability/%s", id))
		if err != nil {
			p.log.Debug().Err(err).Str("equipment_id", id).Msg("predictor unreachable")
			continue
		}
		if resp.IsError() {
			p.log.Debug().Int("status", resp.StatusCode()).Str("equipment_id", id).Msg("predictor refused scoring")
			continue
		}
		out[id] = result.Probability
	}
	return out
}
