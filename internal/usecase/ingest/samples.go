package ingest

import (
	"context"
	"time"
)

// CollectSamples ingests the canned analyst-report set through the normal
// ingest path. Running it twice is harmless: the second pass resolves every
// row as a duplicate.
func (s *Service) CollectSamples(ctx context.Context) (BatchResult, error) {
	return s.IngestBatch(ctx, sampleInputs())
}

// sampleInputs returns a small fixed set of Korean sell-side reports used to
// seed fresh deployments and smoke-test the pipeline end to end.
func sampleInputs() []Input {
	return []Input{
		{
			SecurityCode: "005930",
			Firm:         "미래에셋증권",
			Rating:       "Buy",
			TargetPrice:  85000,
			ReportDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Narrative:    "삼성전자는 메모리 반도체 업황 회복과 함께 견조한 실적이 예상됩니다.",
		},
		{
			SecurityCode: "000660",
			Firm:         "삼성증권",
			Rating:       "Strong Buy",
			TargetPrice:  150000,
			ReportDate:   time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
			Narrative:    "AI 수요 증가로 HBM 메모리 수요가 급증하고 있어 긍정적입니다.",
		},
		{
			SecurityCode: "035420",
			Firm:         "NH투자증권",
			Rating:       "Hold",
			TargetPrice:  200000,
			ReportDate:   time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
			Narrative:    "커머스 사업 성장은 지속되나 경쟁 심화로 수익성 개선이 필요합니다.",
		},
	}
}
