package transport

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskPatchRequest_DeadlineNullVersusAbsent(t *testing.T) {
	var absent TaskPatchRequest
	if err := json.Unmarshal([]byte(`{"completed":true}`), &absent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := absent.ToPatch()
	if p.ClearDeadline || p.Deadline != nil || p.Completed == nil || !*p.Completed {
		t.Errorf("unexpected patch: %+v", p)
	}

	var cleared TaskPatchRequest
	if err := json.Unmarshal([]byte(`{"deadline":null}`), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p := cleared.ToPatch(); !p.ClearDeadline {
		t.Errorf("expected explicit null to clear the deadline: %+v", p)
	}

	var set TaskPatchRequest
	if err := json.Unmarshal([]byte(`{"title":"x","deadline":"2026-03-11T11:00:00Z"}`), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p = set.ToPatch()
	want := time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC)
	if p.Deadline == nil || !p.Deadline.Equal(want) || p.Title == nil || *p.Title != "x" {
		t.Errorf("unexpected patch: %+v", p)
	}
}

func TestNewPatchRequest_RoundTrip(t *testing.T) {
	var req TaskPatchRequest
	body, _ := json.Marshal(NewPatchRequest(TaskPatchRequest{HasDeadline: true}.ToPatch()))
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !req.ToPatch().ClearDeadline {
		t.Errorf("expected clear deadline to survive, body %s", body)
	}
}
