package verify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fintech-reviews/revload/pkg/logging"
)

func TestRunNilPool(t *testing.T) {
	v := NewVerifier(nil, logging.NewNopLogger())
	if _, err := v.Run(context.Background()); err == nil {
		t.Error("expected error for nil pool")
	}
}

func TestWarnAccumulates(t *testing.T) {
	v := NewVerifier(nil, logging.NewNopLogger())
	report := &Report{}

	v.warn(report, "reviews per bank", errors.New("relation does not exist"))
	v.warn(report, "total review count", errors.New("timeout"))

	if len(report.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(report.Warnings))
	}
	if report.Warnings[0] != "reviews per bank: relation does not exist" {
		t.Errorf("unexpected warning: %s", report.Warnings[0])
	}
}

func TestReportOmitsEmptyWarnings(t *testing.T) {
	avg := 4.2
	report := &Report{
		TotalReviews: 10,
		Banks:        []BankStats{{BankName: "CBE", ReviewCount: 10, AverageRating: &avg}},
		Sentiment:    []SentimentCount{{Label: "positive", Count: 7}},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, present := decoded["warnings"]; present {
		t.Error("empty warnings should be omitted")
	}
	if decoded["total_reviews"] != float64(10) {
		t.Errorf("unexpected total: %v", decoded["total_reviews"])
	}
}
