package monitor

import (
	"context"
	"errors"
	"testing"
)

func TestMonitor_Refresh(t *testing.T) {
	redisUp := true
	m := New([]Check{
		{Name: "postgresql", Ping: func(context.Context) error { return nil }},
		{Name: "redis", Ping: func(context.Context) error {
			if redisUp {
				return nil
			}
			return errors.New("down")
		}},
	}, 0, nil)

	if m.IsOnline() {
		t.Fatal("expected offline before the first check")
	}

	m.Refresh()
	if !m.IsOnline() {
		t.Fatalf("expected online, got %+v", m.GetStatus())
	}

	redisUp = false
	m.Refresh()
	st := m.GetStatus()
	if st.Healthy() || st.Services["redis"] || !st.Services["postgresql"] {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := New(nil, 0, nil)
	m.Stop()
	m.Stop()
}
