package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/testutil"
)

func TestPrintStatusSummary(t *testing.T) {
	o := newTestOrchestrator(t, WithName("billing"), WithHealthPollInterval(time.Hour))
	o.MustRegister(
		scripted(testutil.NewScripted("db", nil)),
		scripted(testutil.NewScripted("search", nil).FailInit(fmt.Errorf("index missing")), component.Optional()),
		scripted(testutil.NewScripted("api", nil), component.DependsOn("db")),
	)
	mustStart(t, o)

	var buf bytes.Buffer
	o.PrintStatusSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"billing: 2/3 components running",
		"✅ db [RUNNING]",
		"⚠️ search [ERROR] (optional)",
		"depends on db",
		"error: ",
		"index missing",
		"restarts 0/3",
		"Startup tiers",
		"Restart workers: 0/4 busy",
		"All required components running (2/2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRestartPool_CountsInFlightRestarts(t *testing.T) {
	o := newTestOrchestrator(t, WithRestartWorkers(2))
	db := testutil.NewScripted("db", nil).SetHealth(fmt.Errorf("connection lost"))
	o.MustRegister(scripted(db, component.RestartDelay(time.Hour)))
	mustStart(t, o)

	testutil.T(t).Eventually(time.Second, func() bool {
		busy, _ := o.RestartPool()
		return busy == 1
	}, "restart holds a worker while waiting out its delay")

	var buf bytes.Buffer
	o.PrintStatusSummary(&buf)
	if !strings.Contains(buf.String(), "Restart workers: 1/2 busy") {
		t.Errorf("expected pool occupancy in summary:\n%s", buf.String())
	}

	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if busy, size := o.RestartPool(); busy != 0 || size != 2 {
		t.Errorf("expected an idle pool of 2 after StopAll, got %d/%d", busy, size)
	}
}

func TestPrintStatusSummary_RequiredDown(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(scripted(testutil.NewScripted("db", nil).FailInit(fmt.Errorf("refused"))))
	_, _ = o.StartAll(context.Background())

	var buf bytes.Buffer
	o.PrintStatusSummary(&buf)
	if out := buf.String(); !strings.Contains(out, "❌ db [ERROR]") || !strings.Contains(out, "Required components down (0/1 running)") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestPrintStatusSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	newTestOrchestrator(t).PrintStatusSummary(&buf)
	if !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Microsecond, "2ms"},
		{1234 * time.Millisecond, "1.2s"},
		{90*time.Second + 400*time.Millisecond, "1m30s"},
	}
	for _, tc := range tests {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
