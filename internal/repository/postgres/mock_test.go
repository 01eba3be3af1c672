package postgres

import (
	"context"
	"testing"

	"neurowave-gateway/internal/models"
)

func TestMockRepositoryNewestFirst(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	for _, class := range []string{"Glioma", "Meningioma", "Pituitary"} {
		if err := repo.SavePrediction(ctx, models.PredictionLog{PredictedClass: class}); err != nil {
			t.Fatalf("SavePrediction returned error: %v", err)
		}
	}

	logs, err := repo.RecentPredictions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPredictions returned error: %v", err)
	}
	if len(logs) != 2 || logs[0].PredictedClass != "Pituitary" || logs[1].PredictedClass != "Meningioma" {
		t.Fatalf("unexpected order: %+v", logs)
	}
	if logs[0].ID != 3 {
		t.Fatalf("expected sequential ids, got %d", logs[0].ID)
	}

	all, _ := repo.RecentPredictions(ctx, 50)
	if len(all) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(all))
	}
}

func TestMockRepositoryCapacity(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	for i := 0; i < mockCapacity+10; i++ {
		_ = repo.SavePrediction(ctx, models.PredictionLog{})
	}
	logs, _ := repo.RecentPredictions(ctx, mockCapacity*2)
	if len(logs) != mockCapacity {
		t.Fatalf("expected %d logs, got %d", mockCapacity, len(logs))
	}
	if logs[0].ID != mockCapacity+10 {
		t.Fatalf("expected newest entry first, got id %d", logs[0].ID)
	}
}
