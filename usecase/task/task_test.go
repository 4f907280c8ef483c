package task

import (
	"context"
	"testing"
	"time"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository/memory"
	"github.com/taskmirror/backend/usecase/series"
	"github.com/taskmirror/backend/usecase/undo"
)

var fixedNow = time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)

type fakeBuffer struct {
	completions []string
	creates     []*domain.ExternalRecord
	updates     []*domain.ExternalRecord
}

func (f *fakeBuffer) BufferMarkComplete(ctx context.Context, externalID string) error {
	f.completions = append(f.completions, externalID)
	return nil
}

func (f *fakeBuffer) BufferCreate(ctx context.Context, record *domain.ExternalRecord) error {
	f.creates = append(f.creates, record)
	return nil
}

func (f *fakeBuffer) BufferUpdate(ctx context.Context, record *domain.ExternalRecord) error {
	f.updates = append(f.updates, record)
	return nil
}

type fixture struct {
	uc       *UseCase
	repo     *memory.TaskRepository
	settings *memory.SettingsRepository
	buffer   *fakeBuffer
}

func newFixture() *fixture {
	repo := memory.NewTaskRepository()
	settings := memory.NewSettingsRepository()
	buffer := &fakeBuffer{}
	seriesMgr := series.New(repo, nil)
	undoMgr := undo.New(repo, nil)
	uc := New(repo, settings, seriesMgr, undoMgr, buffer, nil)
	uc.now = func() time.Time { return fixedNow }
	return &fixture{uc: uc, repo: repo, settings: settings, buffer: buffer}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid enums", func(t *testing.T) {
		f := newFixture()
		_, err := f.uc.Create(ctx, &domain.Task{Title: "x", Importance: "extreme"})
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Errorf("expected invalid payload, got %v", err)
		}
		_, err = f.uc.Create(ctx, &domain.Task{Title: "x", Weekdays: []int{8}})
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Errorf("expected invalid payload for weekday 8, got %v", err)
		}
	})

	t.Run("templates shed due dates", func(t *testing.T) {
		f := newFixture()
		due := fixedNow.AddDate(0, 0, 1)
		created, err := f.uc.Create(ctx, &domain.Task{
			Title:      "Water plants",
			Pattern:    domain.PatternDaily,
			IsTemplate: true,
			DueDate:    &due,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.DueDate != nil {
			t.Error("template kept a due date")
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("moving a time block bumps the reschedule count", func(t *testing.T) {
		f := newFixture()
		created, _ := f.uc.Create(ctx, &domain.Task{Title: "Call dentist", TimeBlockID: "block-1"})

		edit := *created
		edit.TimeBlockID = "block-2"
		updated, err := f.uc.Update(ctx, &edit)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.RescheduleCount != 1 {
			t.Errorf("expected reschedule count 1, got %d", updated.RescheduleCount)
		}

		// Initial assignment does not count as a reschedule.
		f2 := newFixture()
		created2, _ := f2.uc.Create(ctx, &domain.Task{Title: "Call dentist"})
		edit2 := *created2
		edit2.TimeBlockID = "block-1"
		updated2, err := f2.uc.Update(ctx, &edit2)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated2.RescheduleCount != 0 {
			t.Errorf("expected reschedule count 0, got %d", updated2.RescheduleCount)
		}
	})

	t.Run("edits never touch sync or completion state", func(t *testing.T) {
		f := newFixture()
		linked, _ := f.repo.Create(ctx, &domain.Task{
			Title:        "Buy milk",
			ExternalID:   "ext-1",
			SourceSystem: domain.SourceExternal,
		})

		edit := *linked
		edit.Title = "Buy oat milk"
		edit.ExternalID = ""
		edit.SourceSystem = domain.SourceLocal
		edit.Completed = true

		updated, err := f.uc.Update(ctx, &edit)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.ExternalID != "ext-1" || updated.SourceSystem != domain.SourceExternal {
			t.Errorf("link severed by an ordinary edit: %+v", updated)
		}
		if updated.Completed {
			t.Error("edit flipped completion state")
		}
		if updated.Title != "Buy oat milk" {
			t.Errorf("edit not applied: %q", updated.Title)
		}
	})

	t.Run("buffers an outbound update for linked tasks", func(t *testing.T) {
		f := newFixture()
		linked, _ := f.repo.Create(ctx, &domain.Task{
			Title:        "Buy milk",
			Importance:   domain.ImportanceHigh,
			ExternalID:   "ext-1",
			SourceSystem: domain.SourceExternal,
		})

		edit := *linked
		edit.Title = "Buy oat milk"
		if _, err := f.uc.Update(ctx, &edit); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if len(f.buffer.updates) != 1 {
			t.Fatalf("expected 1 buffered update, got %d", len(f.buffer.updates))
		}
		record := f.buffer.updates[0]
		if record.ID != "ext-1" || record.Title != "Buy oat milk" || record.Priority != 1 {
			t.Errorf("buffered record wrong: %+v", record)
		}
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("clears staging state and spawns the successor", func(t *testing.T) {
		f := newFixture()
		due := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
		created, _ := f.uc.Create(ctx, &domain.Task{
			Title:       "Water plants",
			Pattern:     domain.PatternDaily,
			DueDate:     &due,
			NextUp:      true,
			TimeBlockID: "block-1",
		})

		completed, err := f.uc.Complete(ctx, created.ID)
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if !completed.Completed || completed.CompletedAt == nil {
			t.Error("task not completed")
		}
		if completed.NextUp || completed.TimeBlockID != "" {
			t.Error("staging state not cleared")
		}

		members, _ := f.repo.ListByGroup(ctx, completed.GroupID)
		open := 0
		for _, member := range members {
			if !member.Completed {
				open++
			}
		}
		if open != 1 {
			t.Errorf("expected one open successor, got %d", open)
		}
	})

	t.Run("completing a template is a no-op", func(t *testing.T) {
		f := newFixture()
		template, _ := f.uc.Create(ctx, &domain.Task{
			Title:      "Water plants",
			Pattern:    domain.PatternDaily,
			IsTemplate: true,
		})

		result, err := f.uc.Complete(ctx, template.ID)
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if result.Completed {
			t.Error("template must never complete")
		}
	})

	t.Run("buffers the external completion per settings", func(t *testing.T) {
		f := newFixture()
		if err := f.settings.Save(ctx, &domain.Settings{MarkExternalComplete: true}); err != nil {
			t.Fatalf("save settings failed: %v", err)
		}
		linked, _ := f.repo.Create(ctx, &domain.Task{
			Title:        "Buy milk",
			ExternalID:   "ext-1",
			SourceSystem: domain.SourceExternal,
		})

		if _, err := f.uc.Complete(ctx, linked.ID); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if len(f.buffer.completions) != 1 || f.buffer.completions[0] != "ext-1" {
			t.Errorf("expected buffered completion, got %v", f.buffer.completions)
		}
	})

	t.Run("does not buffer when the setting is off", func(t *testing.T) {
		f := newFixture()
		linked, _ := f.repo.Create(ctx, &domain.Task{
			Title:        "Buy milk",
			ExternalID:   "ext-1",
			SourceSystem: domain.SourceExternal,
		})

		if _, err := f.uc.Complete(ctx, linked.ID); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if len(f.buffer.completions) != 0 {
			t.Errorf("expected no buffered completion, got %v", f.buffer.completions)
		}
	})
}

func TestUndoLastCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	due := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	created, _ := f.uc.Create(ctx, &domain.Task{
		Title:   "Water plants",
		Pattern: domain.PatternDaily,
		DueDate: &due,
		NextUp:  true,
	})

	completed, err := f.uc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	title, err := f.uc.UndoLastCompletion(ctx)
	if err != nil {
		t.Fatalf("UndoLastCompletion failed: %v", err)
	}
	if title != "Water plants" {
		t.Errorf("expected restored title, got %q", title)
	}

	restored, _ := f.repo.GetByID(ctx, created.ID)
	if restored.Completed {
		t.Error("completion not undone")
	}
	if !restored.NextUp {
		t.Error("staging flag not restored")
	}

	// The spawned successor is retracted: the series is back to one member.
	members, _ := f.repo.ListByGroup(ctx, completed.GroupID)
	if len(members) != 1 {
		t.Errorf("expected spawned instance retracted, got %d members", len(members))
	}

	// A second undo has nothing left to do.
	title, err = f.uc.UndoLastCompletion(ctx)
	if err != nil || title != "" {
		t.Errorf("expected empty slot, got %q, %v", title, err)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, _ := f.uc.Create(ctx, &domain.Task{Title: "One-off"})
	first, err := f.uc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	second, err := f.uc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if !second.Completed || !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("repeat completion changed state: %+v", second)
	}
}

func TestUncomplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, _ := f.uc.Create(ctx, &domain.Task{Title: "One-off"})
	if _, err := f.uc.Complete(ctx, created.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	reopened, err := f.uc.Uncomplete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Uncomplete failed: %v", err)
	}
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Errorf("task still completed: %+v", reopened)
	}
}

func TestListVisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.uc.Create(ctx, &domain.Task{Title: "Plain open task"})
	f.uc.Create(ctx, &domain.Task{Title: "Template", Pattern: domain.PatternDaily, IsTemplate: true})

	farOut := fixedNow.AddDate(0, 0, 10)
	f.uc.Create(ctx, &domain.Task{Title: "Future occurrence", Pattern: domain.PatternDaily, DueDate: &farOut})

	today := fixedNow
	f.uc.Create(ctx, &domain.Task{Title: "Due today", Pattern: domain.PatternDaily, DueDate: &today})

	visible, err := f.uc.ListVisible(ctx)
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}

	titles := make(map[string]bool, len(visible))
	for _, task := range visible {
		titles[task.Title] = true
	}
	if !titles["Plain open task"] || !titles["Due today"] {
		t.Errorf("expected open tasks visible, got %v", titles)
	}
	if titles["Template"] {
		t.Error("templates must stay hidden")
	}
	if titles["Future occurrence"] {
		t.Error("future recurring occurrences must stay hidden")
	}
}
