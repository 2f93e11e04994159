package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestShutdown_ReverseOrderAndJoinedErrors(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	boom := errors.New("boom")

	m.Register("db", func(context.Context) error { order = append(order, "db"); return nil })
	m.Register("cache", func(context.Context) error { order = append(order, "cache"); return boom })
	m.Register("http", func(context.Context) error { order = append(order, "http"); return nil })
	m.Register("nil", nil)

	if got := m.Components(); !reflect.DeepEqual(got, []string{"http", "cache", "db"}) {
		t.Errorf("unexpected components: %v", got)
	}

	err := m.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if !reflect.DeepEqual(order, []string{"http", "cache", "db"}) {
		t.Errorf("unexpected order: %v", order)
	}

	order = nil
	if err := m.Shutdown(context.Background()); err != nil || len(order) != 0 {
		t.Errorf("hooks must run once, got %v / %v", order, err)
	}
}

func TestShutdown_HooksSeeDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected deadline")
		}
		return nil
	})
	_ = m.Shutdown(context.Background())
}

func TestListen_StopIsIdempotent(t *testing.T) {
	m := New(0, nil)
	stop := m.Listen(func() {})
	stop()
	stop()
	m.Listen(nil)()
}
