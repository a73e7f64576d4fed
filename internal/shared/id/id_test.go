package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{ExecutionPrefix, DelegationPrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}
		if !IsValid(id) {
			t.Errorf("prefixed ID should parse: %s", id)
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	if id := NewExecutionID(); !strings.HasPrefix(id.String(), "exec_") {
		t.Errorf("ExecutionID should start with 'exec_', got: %s", id)
	}
	if id := NewDelegationID(); !strings.HasPrefix(id.String(), "dlg_") {
		t.Errorf("DelegationID should start with 'dlg_', got: %s", id)
	}
	if id := NewRequestID(); !strings.HasPrefix(id.String(), "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", id)
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-ulid") {
		t.Error("invalid string reported as valid")
	}
	if !IsValid(NewGenerator().Generate().String()) {
		t.Error("bare ULID reported as invalid")
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Timestamp(string(NewExecutionID()))
	if err != nil {
		t.Fatalf("Timestamp() error = %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v out of range", ts)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 100

	var (
		mu   sync.Mutex
		seen = make(map[ExecutionID]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := NewExecutionID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
