package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskflow/pkg/logger"
)

func TestAttach_PropagatesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "abc")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	if got := string(rc.Response.Header.Peek("X-Request-ID")); got != "abc" {
		t.Errorf("expected echoed request id, got %q", got)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected a deadline")
	}
	buf := appLogger.WithRequestID(ctx, nil)
	if buf != nil {
		t.Error("nil base logger must stay nil")
	}
}

func TestAttach_GeneratesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	_, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	if _, err := uuid.Parse(string(rc.Response.Header.Peek("X-Request-ID"))); err != nil {
		t.Errorf("expected generated uuid: %v", err)
	}
}

func TestAttach_CarriesIdentity(t *testing.T) {
	var rc fasthttp.RequestCtx
	SetIdentity(&rc, "user-1", "session-1")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	if got := UserID(ctx); got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
	if RequestSessionID(&rc) != "session-1" {
		t.Error("expected session id on request")
	}
	if UserID(context.Background()) != "" {
		t.Error("expected empty user id on bare context")
	}
}
