package query

import (
	"math"

	"github.com/altrapisos/crm/internal/core/domain"
)

// Summary is the dashboard aggregate.
type Summary struct {
	TotalRecords    int                `json:"totalRecords"`
	PipelineValue   float64            `json:"pipelineValue"`
	ClosedWon       int                `json:"closedWon"`
	ConversionRate  float64            `json:"conversionRate"`
	AverageValue    float64            `json:"averageValue"`
	ValueByIndustry map[string]float64 `json:"valueByIndustry"`
	CountByIndustry map[string]int     `json:"countByIndustry"`
	CountByStage    map[string]int     `json:"countByStage"`
}

// Summarize aggregates rs. Pipeline value leaves out lost deals and the
// average divides it by every record. The conversion rate is a percentage
// rounded to one decimal, the average is rounded to a whole amount.
func Summarize(rs []domain.Record) Summary {
	s := Summary{
		TotalRecords:    len(rs),
		ValueByIndustry: map[string]float64{},
		CountByIndustry: map[string]int{},
		CountByStage:    map[string]int{},
	}
	for _, r := range rs {
		s.CountByStage[r.SaleStage]++
		industry := r.Industry
		if industry == "" {
			industry = domain.IndustryOther
		}
		s.CountByIndustry[industry]++
		s.ValueByIndustry[industry] += r.DealValue

		switch r.SaleStage {
		case domain.StageClosedWon:
			s.ClosedWon++
		case domain.StageClosedLost:
			continue
		}
		s.PipelineValue += r.DealValue
	}
	if s.TotalRecords > 0 {
		n := float64(s.TotalRecords)
		s.ConversionRate = math.Round(float64(s.ClosedWon)/n*1000) / 10
		s.AverageValue = math.Round(s.PipelineValue / n)
	}
	return s
}
