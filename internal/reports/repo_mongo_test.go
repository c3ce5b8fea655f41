package reports

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"medreport-backend/internal/analysis"
)

func TestMongoDocumentRoundTrip(t *testing.T) {
	report := sampleReport("r1", "google:1", time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))

	doc, err := toDocument(report)
	if err != nil {
		t.Fatalf("toDocument: %v", err)
	}
	if _, ok := doc.Analysis["numericalData"]; !ok {
		t.Fatalf("expected camelCase keys in nested analysis, got %v", doc.Analysis)
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}
	var decoded reportDocument
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("bson.Unmarshal: %v", err)
	}

	got, err := fromDocument(decoded)
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if got.ID != report.ID || got.UserID != report.UserID || !got.CreatedAt.Equal(report.CreatedAt) {
		t.Fatalf("unexpected report %+v", got)
	}
	metrics := got.Analysis.NumericalData.Metrics
	if len(metrics) != 1 || metrics[0].Status != analysis.StatusCritical {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if len(got.Analysis.KeyFindings) != 1 || got.Analysis.UrgentConcerns == nil {
		t.Fatalf("unexpected analysis %+v", got.Analysis)
	}
}

func TestMongoDocumentWithoutAnalysis(t *testing.T) {
	got, err := fromDocument(reportDocument{ID: "r1", UserID: "u"})
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if got.Analysis.KeyFindings == nil || got.Analysis.NumericalData.Metrics == nil {
		t.Fatalf("expected empty defaults, got %+v", got.Analysis)
	}
}

func TestHistoryFindOptions(t *testing.T) {
	opts := historyFindOptions(0)
	if opts.Limit == nil || *opts.Limit != int64(HistoryLimit) {
		t.Fatalf("expected limit %d, got %v", HistoryLimit, opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 1 || sort[0].Key != "createdAt" || sort[0].Value != -1 {
		t.Fatalf("unexpected sort %#v", opts.Sort)
	}
}
