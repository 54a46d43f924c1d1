package orchestrator

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/orchestrator/component"
)

// PrintStatusSummary writes a human-readable tree of every component's
// state, in startup order, followed by the startup tiers.
func (o *Orchestrator) PrintStatusSummary(w io.Writer) {
	statuses := o.GetAllStatus()
	order, err := o.Order()
	if err != nil {
		order = o.store.Names()
	}

	running, required, requiredUp := 0, 0, 0
	for _, st := range statuses {
		if st.State == component.StateRunning {
			running++
		}
		if !st.Optional {
			required++
			if st.State == component.StateRunning {
				requiredUp++
			}
		}
	}

	o.mu.Lock()
	startedAt, isRunning := o.startedAt, o.started
	o.mu.Unlock()

	fmt.Fprintf(w, "\n🚀 %s: %d/%d components running", o.name, running, len(statuses))
	if isRunning && !startedAt.IsZero() {
		fmt.Fprintf(w, " (up %s)", formatDuration(time.Since(startedAt)))
	}
	fmt.Fprintf(w, "\n\n")

	if len(order) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	fmt.Fprintf(w, "📦 Components\n")
	for i, name := range order {
		st := statuses[name]
		last := i == len(order)-1
		prefix, child := "├──", "│   "
		if last {
			prefix, child = "└──", "    "
		}

		fmt.Fprintf(w, "   %s %s %s [%s]%s\n", prefix, stateIcon(st), displayName(st), st.State, flags(st))

		var lines []string
		if st.Description != nil && st.Description.Details != "" {
			lines = append(lines, st.Description.Details)
		}
		if len(st.Dependencies) > 0 {
			lines = append(lines, "depends on "+strings.Join(st.Dependencies, ", "))
		}
		lines = append(lines, restartLine(st))
		if st.State == component.StateRunning && st.Uptime > 0 {
			lines = append(lines, "up "+formatDuration(st.Uptime))
		}
		if st.LastHealthCheck != nil {
			lines = append(lines, "last check "+formatDuration(time.Since(*st.LastHealthCheck))+" ago")
		}
		if st.ErrorMessage != "" {
			lines = append(lines, "error: "+st.ErrorMessage)
		}
		for j, line := range lines {
			branch := "├──"
			if j == len(lines)-1 {
				branch = "└──"
			}
			fmt.Fprintf(w, "   %s%s %s\n", child, branch, line)
		}
	}

	if levels, err := o.Levels(); err == nil && len(levels) > 1 {
		fmt.Fprintf(w, "\n🧱 Startup tiers\n")
		for i, level := range levels {
			prefix := "├──"
			if i == len(levels)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(w, "   %s %d: %s\n", prefix, i+1, strings.Join(level, ", "))
		}
	}

	busy, size := o.RestartPool()
	fmt.Fprintf(w, "\n🔁 Restart workers: %d/%d busy\n", busy, size)

	fmt.Fprintf(w, "\n")
	if requiredUp == required {
		fmt.Fprintf(w, "✅ All required components running (%d/%d)\n\n", requiredUp, required)
	} else {
		fmt.Fprintf(w, "⚠️  Required components down (%d/%d running)\n\n", requiredUp, required)
	}
}

func displayName(st component.Status) string {
	if st.Description != nil && st.Description.Name != "" && st.Description.Name != st.Name {
		return fmt.Sprintf("%s (%s)", st.Description.Name, st.Name)
	}
	return st.Name
}

func flags(st component.Status) string {
	var f []string
	if st.Optional {
		f = append(f, "optional")
	}
	if st.Exhausted {
		f = append(f, "exhausted")
	}
	if st.Description != nil && st.Description.Type != "" {
		f = append(f, st.Description.Type)
	}
	if len(f) == 0 {
		return ""
	}
	sort.Strings(f)
	return " (" + strings.Join(f, ", ") + ")"
}

func restartLine(st component.Status) string {
	return fmt.Sprintf("restarts %d/%d", st.RestartCount, st.MaxRestarts)
}

func stateIcon(st component.Status) string {
	switch st.State {
	case component.StateRunning:
		return "✅"
	case component.StateInitializing, component.StateRecovering:
		return "🔄"
	case component.StateStopping, component.StateStopped:
		return "⏹️"
	case component.StateError:
		if st.Optional {
			return "⚠️"
		}
		return "❌"
	default:
		return "⏸️"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
