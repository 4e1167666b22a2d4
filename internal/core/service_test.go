package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewService_RequiresConfig(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestVersion(t *testing.T) {
	cfg := testPipelineConfig(t, sampleExport)
	svc := newTestService(t, cfg, nil, nil)
	if got := svc.Version(); got != "2026.08.22" {
		t.Errorf("Version = %q, want configured tag", got)
	}

	cfg.Pipeline.VersionTag = ""
	before := time.Now().Format("2006.01.02")
	got := svc.Version()
	after := time.Now().Format("2006.01.02")
	if got != before && got != after {
		t.Errorf("Version = %q, want today's date", got)
	}
}

func TestStartPublish_OneRunAtATime(t *testing.T) {
	cfg := testPipelineConfig(t, sampleExport)
	cfg.Deploy.SkipRestart = true
	store := newFakeStore()
	store.block = make(chan struct{})
	svc := newTestService(t, cfg, store, nil)

	id, err := svc.StartPublish(context.Background())
	if err != nil {
		t.Fatalf("StartPublish: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	if _, err := svc.StartPublish(context.Background()); !errors.Is(err, ErrRunActive) {
		t.Errorf("second StartPublish: %v, want ErrRunActive", err)
	}

	close(store.block)
	res, err := svc.Result(context.Background(), id)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res == nil || res.Blocked {
		t.Errorf("result = %+v", res)
	}
	if res.RunID != id {
		t.Errorf("RunID = %q, want %q", res.RunID, id)
	}

	// The finished run no longer blocks a new one.
	if _, err := svc.StartPublish(context.Background()); err != nil {
		t.Errorf("StartPublish after completion: %v", err)
	}
}

func TestSubscribeProgress_DeliversPhasesUntilClose(t *testing.T) {
	cfg := testPipelineConfig(t, sampleExport)
	cfg.Deploy.SkipRestart = true
	store := newFakeStore()
	store.block = make(chan struct{})
	svc := newTestService(t, cfg, store, nil)

	id, err := svc.StartPublish(context.Background())
	if err != nil {
		t.Fatalf("StartPublish: %v", err)
	}
	progress, err := svc.SubscribeProgress(id)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	close(store.block)

	var phases []RunPhase
	for p := range progress {
		if p.RunID != id {
			t.Errorf("snapshot for run %q, want %q", p.RunID, id)
		}
		phases = append(phases, p.Phase)
	}

	if len(phases) == 0 {
		t.Fatal("no progress snapshots received")
	}
	if phases[len(phases)-1] != PhaseComplete {
		t.Errorf("final phase = %q, want %q (all: %v)", phases[len(phases)-1], PhaseComplete, phases)
	}
}

func TestSubscribeProgress_FinishedRun(t *testing.T) {
	cfg := testPipelineConfig(t, sampleExport)
	cfg.Deploy.SkipRestart = true
	svc := newTestService(t, cfg, newFakeStore(), nil)

	id, err := svc.StartPublish(context.Background())
	if err != nil {
		t.Fatalf("StartPublish: %v", err)
	}
	if _, err := svc.Result(context.Background(), id); err != nil {
		t.Fatalf("Result: %v", err)
	}

	// Subscribing after completion still yields the final snapshot and a
	// closed channel rather than a hang.
	progress, err := svc.SubscribeProgress(id)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	p, ok := <-progress
	if !ok {
		t.Fatal("channel closed without the final snapshot")
	}
	if p.Phase != PhaseComplete {
		t.Errorf("phase = %q, want %q", p.Phase, PhaseComplete)
	}
	if _, ok := <-progress; ok {
		t.Error("channel not closed after final snapshot")
	}
}

func TestSubscribeProgress_UnknownRun(t *testing.T) {
	svc := newTestService(t, testPipelineConfig(t, sampleExport), nil, nil)
	if _, err := svc.SubscribeProgress("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestResult_UnknownRun(t *testing.T) {
	svc := newTestService(t, testPipelineConfig(t, sampleExport), nil, nil)
	if _, err := svc.Result(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestCancelRun(t *testing.T) {
	cfg := testPipelineConfig(t, sampleExport)
	store := newFakeStore()
	store.block = make(chan struct{})
	svc := newTestService(t, cfg, store, nil)

	id, err := svc.StartPublish(context.Background())
	if err != nil {
		t.Fatalf("StartPublish: %v", err)
	}
	if err := svc.CancelRun(id); err != nil {
		t.Fatalf("CancelRun: %v", err)
	}

	_, err = svc.Result(context.Background(), id)
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("Result after cancel = %v", err)
	}
}

func TestCancelRun_UnknownRun(t *testing.T) {
	svc := newTestService(t, testPipelineConfig(t, sampleExport), nil, nil)
	if err := svc.CancelRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}
