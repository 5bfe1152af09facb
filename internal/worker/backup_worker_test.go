package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cashtrack/internal/amqp"
)

type fakeProcessor struct {
	mu       sync.Mutex
	pending  int
	messages []string
	err      error
}

func (f *fakeProcessor) HandleBackupMessage(_ context.Context, msg *amqp.BackupMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg.ID)
	return nil
}

func (f *fakeProcessor) ProcessPending(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending++
	return f.err
}

func (f *fakeProcessor) pendingRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

type fakeConsumer struct {
	msgs []*amqp.BackupMessage
}

func (f *fakeConsumer) ConsumeBackups(ctx context.Context, handler func(context.Context, *amqp.BackupMessage) error) error {
	for _, m := range f.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunProcessesMessagesAndScans(t *testing.T) {
	proc := &fakeProcessor{}
	cons := &fakeConsumer{msgs: []*amqp.BackupMessage{{ID: "t1"}, {ID: "t2"}}}
	w := NewBackupWorker(cons, proc, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	proc.mu.Lock()
	got := len(proc.messages)
	proc.mu.Unlock()
	if got != 2 {
		t.Errorf("handled %d messages, want 2", got)
	}
	// Startup scan plus at least one tick.
	if proc.pendingRuns() < 2 {
		t.Errorf("pending scans = %d, want >= 2", proc.pendingRuns())
	}
}

func TestRunWithoutConsumer(t *testing.T) {
	proc := &fakeProcessor{}
	w := NewBackupWorker(nil, proc, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if proc.pendingRuns() < 1 {
		t.Error("expected at least the startup scan")
	}
}

func TestRunSurfacesConsumerFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("append failed")}
	cons := &fakeConsumer{msgs: []*amqp.BackupMessage{{ID: "t1"}}}
	w := NewBackupWorker(cons, proc, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := w.Run(ctx); err == nil {
		t.Fatal("expected consumer error to surface")
	}
}
