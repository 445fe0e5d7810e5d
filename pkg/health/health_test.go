package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dd0wney/cluso-graphsink/pkg/executor"
	"github.com/dd0wney/cluso-graphsink/pkg/sink"
)

func TestWorstStatusWins(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("a", func() Check { return Check{Status: StatusHealthy} })
	hc.RegisterCheck("b", func() Check { return Check{Status: StatusDegraded} })

	if got := hc.Check().Status; got != StatusDegraded {
		t.Errorf("status = %s, want degraded", got)
	}

	hc.RegisterCheck("c", func() Check { return Check{Status: StatusUnhealthy} })
	resp := hc.Check()
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
	if resp.Checks["c"].Name != "c" {
		t.Errorf("check name defaulted to %q, want c", resp.Checks["c"].Name)
	}
}

func TestReadinessSeparateFromHealth(t *testing.T) {
	hc := NewHealthChecker()
	called := false
	hc.RegisterReadinessCheck("ready", func() Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	hc.Check()
	if called {
		t.Error("readiness check should not run for Check()")
	}
	if _, ok := hc.CheckReadiness().Checks["ready"]; !ok || !called {
		t.Error("readiness check was not run")
	}
}

func TestSinkCheck(t *testing.T) {
	statuses := []sink.Status{{Subtask: "0/2", Pending: 5}, {Subtask: "1/2", Pending: 1}}
	check := SinkCheck(func() []sink.Status { return statuses }, 10)

	if got := check().Status; got != StatusHealthy {
		t.Errorf("status = %s, want healthy", got)
	}

	statuses[1].Pending = 11
	if got := check(); got.Status != StatusDegraded || got.Details["1/2"] != 11 {
		t.Errorf("check = %+v, want degraded with 1/2 backlog", got)
	}

	statuses[0].Failed = true
	statuses[0].Failure = "connection refused"
	got := check()
	if got.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", got.Status)
	}
	if got.Details["0/2"] != "connection refused" {
		t.Errorf("details = %v", got.Details)
	}
}

type nopSession struct{}

func (nopSession) Execute(context.Context, string) (*executor.Result, error) {
	return &executor.Result{Succeeded: true}, nil
}
func (nopSession) Close() error { return nil }

func TestSessionCheck(t *testing.T) {
	ok := executor.SessionFactoryFunc(func(context.Context) (executor.Session, error) { return nopSession{}, nil })
	if got := SessionCheck(ok, time.Second)(); got.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", got.Status)
	}

	down := executor.SessionFactoryFunc(func(context.Context) (executor.Session, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	got := SessionCheck(down, time.Second)()
	if got.Status != StatusUnhealthy || got.Message != "dial tcp: connection refused" {
		t.Errorf("check = %+v", got)
	}
}

func TestMemoryCheck(t *testing.T) {
	if got := MemoryCheck(0)(); got.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", got.Status)
	}
	if got := MemoryCheck(1)(); got.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", got.Status)
	}
}

func TestHandlers(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("sink", func() Check { return Check{Status: StatusDegraded} })
	hc.RegisterReadinessCheck("session", func() Check { return Check{Status: StatusDegraded} })

	rec := httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health code = %d, want 200 for degraded", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("status = %s", resp.Status)
	}

	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready code = %d, want 503", rec.Code)
	}
}
