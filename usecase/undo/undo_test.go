package undo

import (
	"context"
	"testing"
	"time"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository/memory"
)

func TestUndoRestoresPreCompletionState(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()
	m := New(repo, nil)

	task, _ := repo.Create(ctx, &domain.Task{Title: "Water plants", NextUp: true, TimeBlockID: "block-7"})
	m.Capture(task)

	completedAt := time.Now()
	task.Completed = true
	task.CompletedAt = &completedAt
	task.NextUp = false
	task.TimeBlockID = ""
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	title, err := m.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if title != "Water plants" {
		t.Errorf("expected restored title, got %q", title)
	}

	restored, _ := repo.GetByID(ctx, task.ID)
	if restored.Completed || restored.CompletedAt != nil {
		t.Error("completion not reversed")
	}
	if !restored.NextUp || restored.TimeBlockID != "block-7" {
		t.Errorf("staging state not restored: %+v", restored)
	}
}

func TestUndoRetractsSpawnedInstance(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()
	m := New(repo, nil)

	task, _ := repo.Create(ctx, &domain.Task{Title: "Water plants", Pattern: domain.PatternDaily})
	spawned, _ := repo.Create(ctx, &domain.Task{Title: "Water plants", Pattern: domain.PatternDaily})

	m.Capture(task)
	m.RecordSpawned(spawned.ID)

	if _, err := m.Undo(ctx); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, spawned.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("spawned instance should be retracted, got %v", err)
	}
}

func TestUndoSlotHoldsOnlyTheLatestCompletion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()
	m := New(repo, nil)

	first, _ := repo.Create(ctx, &domain.Task{Title: "First", NextUp: true})
	second, _ := repo.Create(ctx, &domain.Task{Title: "Second"})

	m.Capture(first)
	m.Capture(second)

	completedAt := time.Now()
	for _, task := range []*domain.Task{first, second} {
		task.Completed = true
		task.CompletedAt = &completedAt
		if err := repo.Update(ctx, task); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	title, err := m.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if title != "Second" {
		t.Errorf("expected the latest completion, got %q", title)
	}

	untouched, _ := repo.GetByID(ctx, first.ID)
	if !untouched.Completed {
		t.Error("earlier completion must stay completed")
	}

	// The slot is single-use.
	title, err = m.Undo(ctx)
	if err != nil {
		t.Fatalf("second Undo failed: %v", err)
	}
	if title != "" {
		t.Errorf("slot should be empty, got %q", title)
	}
}

func TestUndoWithEmptySlotIsANoOp(t *testing.T) {
	m := New(memory.NewTaskRepository(), nil)
	title, err := m.Undo(context.Background())
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if title != "" {
		t.Errorf("expected empty title, got %q", title)
	}
}

func TestUndoSurvivesDeletedTask(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()
	m := New(repo, nil)

	task, _ := repo.Create(ctx, &domain.Task{Title: "Ephemeral"})
	m.Capture(task)
	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	title, err := m.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if title != "" {
		t.Errorf("expected empty title for a vanished task, got %q", title)
	}
}

func TestRecordSpawnedWithoutCaptureIsIgnored(t *testing.T) {
	repo := memory.NewTaskRepository()
	m := New(repo, nil)
	m.RecordSpawned("anything")

	title, err := m.Undo(context.Background())
	if err != nil || title != "" {
		t.Errorf("expected empty slot, got %q, %v", title, err)
	}
}
