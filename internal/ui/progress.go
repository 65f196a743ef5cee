package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Phase is one step of a generation run
type Phase string

const (
	PhaseLoading    Phase = "Loading"
	PhaseGenerating Phase = "Generating"
	PhaseReviewing  Phase = "Reviewing"
	PhaseReporting  Phase = "Reporting"
)

// RunPhases lists the phases of a generate run; Reviewing only when the
// reviewer runs
func RunPhases(review bool) []Phase {
	phases := []Phase{PhaseLoading, PhaseGenerating}
	if review {
		phases = append(phases, PhaseReviewing)
	}
	return append(phases, PhaseReporting)
}

// ProgressBar tracks the units of work in one phase
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	phase Phase
}

func newBar(phase Phase, total int, w io.Writer) *ProgressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("[%s]", phase)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetPredictTime(true),
	)
	return &ProgressBar{bar: bar, phase: phase}
}

// silentBar accepts updates and draws nothing
func silentBar(phase Phase) *ProgressBar {
	return &ProgressBar{
		bar:   progressbar.NewOptions(-1, progressbar.OptionSetWriter(io.Discard)),
		phase: phase,
	}
}

// Increment marks one unit of the phase done
func (pb *ProgressBar) Increment() error {
	return pb.bar.Add(1)
}

// Describe shows what the phase is working on, e.g. "GET /users"
func (pb *ProgressBar) Describe(description string) {
	pb.bar.Describe(fmt.Sprintf("[%s] %s", pb.phase, description))
}

func (pb *ProgressBar) finish() error {
	return pb.bar.Finish()
}

// phaseTiming is the wall time spent in one phase
type phaseTiming struct {
	phase   Phase
	started time.Time
	elapsed time.Duration
	done    bool
}

// Pipeline shows one progress bar per phase and times each phase
type Pipeline struct {
	phases   []Phase
	current  int
	bar      *ProgressBar
	timings  []phaseTiming
	disabled bool
	output   io.Writer
	now      func() time.Time
}

// NewPipeline creates a pipeline that draws on stdout
func NewPipeline(phases []Phase) *Pipeline {
	return NewPipelineWithOutput(phases, os.Stdout)
}

// NewPipelineWithOutput creates a pipeline that draws on output
func NewPipelineWithOutput(phases []Phase, output io.Writer) *Pipeline {
	return &Pipeline{
		phases:  phases,
		current: -1,
		timings: make([]phaseTiming, 0, len(phases)),
		output:  output,
		now:     time.Now,
	}
}

// Disable stops all drawing. Phases are still timed.
func (p *Pipeline) Disable() {
	p.disabled = true
}

// NextPhase finishes the current phase and starts the next one with total
// units of work. Past the last phase it returns a bar that draws nothing.
func (p *Pipeline) NextPhase(total int) *ProgressBar {
	p.endPhase()

	p.current++
	if p.current >= len(p.phases) {
		return silentBar("")
	}

	phase := p.phases[p.current]
	p.timings = append(p.timings, phaseTiming{phase: phase, started: p.now()})

	if p.disabled {
		p.bar = silentBar(phase)
	} else {
		p.bar = newBar(phase, total, p.output)
	}
	return p.bar
}

// Current returns the active phase, or "" before the first one
func (p *Pipeline) Current() Phase {
	if p.current < 0 || p.current >= len(p.phases) {
		return ""
	}
	return p.phases[p.current]
}

// Finish ends the active phase
func (p *Pipeline) Finish() {
	p.endPhase()
}

func (p *Pipeline) endPhase() {
	if p.bar != nil {
		_ = p.bar.finish()
		p.bar = nil
	}
	if n := len(p.timings); n > 0 && !p.timings[n-1].done {
		p.timings[n-1].elapsed = p.now().Sub(p.timings[n-1].started)
		p.timings[n-1].done = true
	}
}

// Elapsed returns the recorded duration of phase, or 0 if it never ran
func (p *Pipeline) Elapsed(phase Phase) time.Duration {
	for _, t := range p.timings {
		if t.phase == phase {
			return t.elapsed
		}
	}
	return 0
}

// PrintSummary writes one line with the time spent in each finished phase,
// e.g. "Phases: Loading 12ms, Generating 41.2s, Reporting 30ms"
func (p *Pipeline) PrintSummary() {
	if p.disabled || len(p.timings) == 0 {
		return
	}

	parts := make([]string, 0, len(p.timings))
	for _, t := range p.timings {
		parts = append(parts, fmt.Sprintf("%s %s", t.phase, t.elapsed.Round(time.Millisecond)))
	}
	fmt.Fprintf(p.output, "Phases: %s\n", strings.Join(parts, ", "))
}
