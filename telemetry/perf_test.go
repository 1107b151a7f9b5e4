package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseMove)
		time.Sleep(20 * time.Microsecond)
		pc.StartPhase(PhaseQuerySphere)
		time.Sleep(300 * time.Microsecond)
		pc.EndTick()
	}

	s := pc.Stats()
	if s.AvgTickDuration <= 0 {
		t.Fatal("AvgTickDuration = 0, want positive")
	}
	if s.PhaseAvg[PhaseMove] <= 0 || s.PhaseAvg[PhaseQuerySphere] <= 0 {
		t.Errorf("PhaseAvg = %v, want move and query_sphere tracked", s.PhaseAvg)
	}
	if s.PhaseAvg[PhaseRebalance] != 0 {
		t.Errorf("rebalance avg = %v, want 0 for an unused phase", s.PhaseAvg[PhaseRebalance])
	}
	if s.PhasePct[PhaseQuerySphere] <= s.PhasePct[PhaseMove] {
		t.Errorf("query_sphere %v%% <= move %v%%", s.PhasePct[PhaseQuerySphere], s.PhasePct[PhaseMove])
	}
	if s.MinTickDuration > s.AvgTickDuration || s.AvgTickDuration > s.MaxTickDuration {
		t.Errorf("min/avg/max = %v/%v/%v out of order", s.MinTickDuration, s.AvgTickDuration, s.MaxTickDuration)
	}
}

func TestPerfCollectorRingWraps(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseUpdate)
		pc.EndTick()
	}

	if pc.filled != 5 {
		t.Errorf("filled = %d, want 5", pc.filled)
	}
	if s := pc.Stats(); s.TicksPerSecond <= 0 {
		t.Error("TicksPerSecond = 0 after the ring filled")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	s := NewPerfCollector(0).Stats()
	if s.AvgTickDuration != 0 || s.TicksPerSecond != 0 || s.FPS != 0 {
		t.Errorf("empty stats = %+v, want zero", s)
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	s := pc.Stats()
	if s.FrameDuration < 15*time.Millisecond {
		t.Errorf("FrameDuration = %v, want >= 15ms", s.FrameDuration)
	}
	if s.FPS <= 0 || s.FPS > 70 {
		t.Errorf("FPS = %v, want in (0, 70]", s.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseMove, "move"},
		{PhaseQueryFrustum, "query_frustum"},
		{PhaseTelemetry, "telemetry"},
		{numPhases, "unknown"},
		{-1, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(tt.phase), got, tt.want)
		}
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	var s PerfStats
	s.AvgTickDuration = 2 * time.Millisecond
	s.PhasePct[PhaseRebalance] = 12.5
	s.PhasePct[PhaseQuerySphere] = 30

	row := s.ToCSV(600)
	if row.WindowEnd != 600 {
		t.Errorf("WindowEnd = %d, want 600", row.WindowEnd)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("AvgTickUS = %d, want 2000", row.AvgTickUS)
	}
	if row.RebalancePct != 12.5 || row.QuerySpherePct != 30 {
		t.Errorf("phase pct = %v/%v, want 12.5/30", row.RebalancePct, row.QuerySpherePct)
	}
	if row.MovePct != 0 {
		t.Errorf("MovePct = %v, want 0", row.MovePct)
	}
}

func TestPerfStatsLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var s PerfStats
	s.PhasePct[PhaseQueryRay] = 4
	logger.Info("perf", "stats", s)

	if !strings.Contains(buf.String(), `"query_ray_pct":4`) {
		t.Errorf("log output %s missing query_ray_pct", buf.String())
	}
}
