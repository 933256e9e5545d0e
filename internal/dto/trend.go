package dto

import (
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/gate"
	"github.com/benefitsnav/maive/pkg/utils"
)

type TrendResponse struct {
	Date         time.Time `json:"date"`
	Jurisdiction string    `json:"jurisdiction"`
	AvgAccuracy  float64   `json:"avgAccuracy"`
	TestCount    int       `json:"testCount"`
	Readiness    string    `json:"readiness"`
}

func FromTrends(trends []domain.AccuracyTrend) []TrendResponse {
	out := make([]TrendResponse, 0, len(trends))
	for _, tr := range trends {
		out = append(out, TrendResponse{
			Date:         tr.Date,
			Jurisdiction: tr.Jurisdiction,
			AvgAccuracy:  utils.RoundDecimal(tr.AvgAccuracy, accuracyDecimals),
			TestCount:    tr.TestCount,
			Readiness:    gate.Classify(tr.AvgAccuracy).Label(),
		})
	}
	return out
}
