package taskexec

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDependencyBatch_EmptyReturnsError(t *testing.T) {
	p := newTestProcessor(t, Options{})
	_, err := p.DependencyBatch(context.Background(), nil, nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("DependencyBatch(nil) error = %v, want ErrEmptyBatch", err)
	}
}

func TestDependencyBatch_NilFactoryReturnsError(t *testing.T) {
	p := newTestProcessor(t, Options{})
	_, err := p.DependencyBatch(context.Background(), []Definition{{Name: "a"}}, nil)
	if !errors.Is(err, ErrNilFactory) {
		t.Errorf("DependencyBatch() error = %v, want ErrNilFactory", err)
	}
}

func TestDependencyBatch_CyclicDependencyRejectedBeforeDispatch(t *testing.T) {
	p := newTestProcessor(t, Options{MaxConcurrency: 2, DefaultTaskTimeout: time.Second})
	var dispatched int32
	defs := []Definition{
		{Name: "a", DependsOn: []string{"b"}, Run: func(ctx context.Context) (any, error) {
			dispatched++
			return nil, nil
		}},
		{Name: "b", DependsOn: []string{"a"}, Run: func(ctx context.Context) (any, error) {
			dispatched++
			return nil, nil
		}},
	}
	_, err := p.DependencyBatch(context.Background(), defs, nil)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("DependencyBatch() error = %v, want ErrCyclicDependency", err)
	}
	if dispatched != 0 {
		t.Errorf("dispatched = %d, want 0 (cycle must be rejected before anything runs)", dispatched)
	}
}

func TestDependencyBatch_RunsInDependencyOrder(t *testing.T) {
	p := newTestProcessor(t, Options{MaxConcurrency: 4, DefaultTaskTimeout: time.Second})

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	defs := []Definition{
		{Name: "build", Run: func(ctx context.Context) (any, error) {
			time.Sleep(10 * time.Millisecond)
			record("build")
			return nil, nil
		}},
		{Name: "test", DependsOn: []string{"build"}, Run: func(ctx context.Context) (any, error) {
			record("test")
			return nil, nil
		}},
		{Name: "deploy", DependsOn: []string{"test"}, Run: func(ctx context.Context) (any, error) {
			record("deploy")
			return nil, nil
		}},
	}

	results, err := p.DependencyBatch(context.Background(), defs, nil)
	if err != nil {
		t.Fatalf("DependencyBatch() error = %v", err)
	}
	for _, r := range results {
		if !r.Successful {
			t.Errorf("result %q failed: %s", r.Name, r.Message)
		}
	}
	if len(order) != 3 || order[0] != "build" || order[1] != "test" || order[2] != "deploy" {
		t.Errorf("execution order = %v, want [build test deploy]", order)
	}
}

func TestDependencyBatch_FailedDependencySkipsSuccessorsWithoutDispatch(t *testing.T) {
	p := newTestProcessor(t, Options{MaxConcurrency: 4, DefaultTaskTimeout: time.Second})

	var successorCalled, grandchildCalled int32
	defs := []Definition{
		{Name: "fetch", Run: func(ctx context.Context) (any, error) { return nil, errors.New("network down") }},
		{Name: "process", DependsOn: []string{"fetch"}, Run: func(ctx context.Context) (any, error) {
			successorCalled++
			return nil, nil
		}},
		{Name: "publish", DependsOn: []string{"process"}, Run: func(ctx context.Context) (any, error) {
			grandchildCalled++
			return nil, nil
		}},
		{Name: "independent", Run: func(ctx context.Context) (any, error) { return "fine", nil }},
	}

	results, err := p.DependencyBatch(context.Background(), defs, nil)
	if err != nil {
		t.Fatalf("DependencyBatch() error = %v", err)
	}

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	if byName["fetch"].Successful {
		t.Errorf("fetch.Successful = true, want false")
	}
	if successorCalled != 0 {
		t.Errorf("process ran %d times, want 0 (its dependency failed)", successorCalled)
	}
	if grandchildCalled != 0 {
		t.Errorf("publish ran %d times, want 0 (transitive dependency failed)", grandchildCalled)
	}
	if byName["process"].Successful || byName["process"].Kind != KindBusiness {
		t.Errorf("process result = %+v, want unsuccessful KindBusiness", byName["process"])
	}
	if byName["process"].Attempt != 1 {
		t.Errorf("process.Attempt = %d, want 1", byName["process"].Attempt)
	}
	if byName["process"].Message != dependencySkipMessage("fetch") {
		t.Errorf("process.Message = %q, want %q", byName["process"].Message, dependencySkipMessage("fetch"))
	}
	if !byName["independent"].Successful {
		t.Errorf("independent.Successful = false, want true (unrelated to the failed branch)")
	}
}

func TestDependencyBatch_MissingDependencyRejected(t *testing.T) {
	p := newTestProcessor(t, Options{MaxConcurrency: 1, DefaultTaskTimeout: time.Second})
	defs := []Definition{
		{Name: "a", DependsOn: []string{"ghost"}, Run: noopRun},
	}
	_, err := p.DependencyBatch(context.Background(), defs, nil)
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("DependencyBatch() error = %v, want ErrMissingDependency", err)
	}
}
