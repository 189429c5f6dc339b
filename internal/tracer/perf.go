package tracer

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// PerfTracer records wall-clock duration per named stage across a single
// run, grounded on the PerfProfiler test helper used by the original
// rounds/sign.rs and rounds/keygen.rs test suites and on drand's
// per-stage timing convention in internal/metrics.
type PerfTracer struct {
	mu          sync.Mutex
	started     time.Time
	roundStart  time.Time
	stageStart  time.Time
	stageLabel  string
	currentName string
	stages      []stageTiming
}

type stageTiming struct {
	label    string
	duration time.Duration
}

// NewPerfTracer returns a PerfTracer ready to attach to a single run. It
// is not safe to reuse across concurrent runs.
func NewPerfTracer() *PerfTracer {
	return &PerfTracer{}
}

func (p *PerfTracer) ProtocolBegins() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = time.Now()
}

func (p *PerfTracer) RoundBegins() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roundStart = time.Now()
}

func (p *PerfTracer) NamedRoundBegins(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentName = name
	p.roundStart = time.Now()
}

func (p *PerfTracer) Stage(label string) { p.mark(label) }

func (p *PerfTracer) SendMsg()      { p.mark("send_msg") }
func (p *PerfTracer) MsgSent()      { p.mark("msg_sent") }
func (p *PerfTracer) ReceiveMsgs()  { p.mark("receive_msgs") }
func (p *PerfTracer) MsgsReceived() { p.mark("msgs_received") }

func (p *PerfTracer) mark(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.stageStart.IsZero() {
		p.stages = append(p.stages, stageTiming{label: p.stageLabel, duration: now.Sub(p.stageStart)})
	}
	p.stageStart = now
	p.stageLabel = label
}

func (p *PerfTracer) ProtocolEnds() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.stageStart.IsZero() {
		p.stages = append(p.stages, stageTiming{label: p.stageLabel, duration: now.Sub(p.stageStart)})
	}
	p.stageStart = time.Time{}
	p.stageLabel = ""
}

// Report renders a one-line summary of every recorded stage, suitable for
// a debug log line.
func (p *PerfTracer) Report() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	total := time.Since(p.started)
	fmt.Fprintf(&b, "total=%s", total)
	for _, s := range p.stages {
		fmt.Fprintf(&b, " %s=%s", s.label, s.duration)
	}
	return b.String()
}
