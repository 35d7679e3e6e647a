package scanner

import (
	"sync"
	"time"

	"github.com/lankapos/pos-backend/pkg/config"
)

// Pipeline multiplexes scan input handling across terminals. Each terminal
// gets its own accumulator, field debouncer and deduper; codes that survive
// all three stages are ready for barcode resolution.
type Pipeline struct {
	mu        sync.Mutex
	cfg       config.ScannerConfig
	terminals map[string]*terminalState
	now       func() time.Time
}

type terminalState struct {
	acc   *Accumulator
	field *FieldDebouncer
	dedup *Deduper
}

// NewPipeline builds an empty pipeline.
func NewPipeline(cfg config.ScannerConfig) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		terminals: make(map[string]*terminalState),
		now:       time.Now,
	}
}

func (p *Pipeline) state(terminal string) *terminalState {
	if st, ok := p.terminals[terminal]; ok {
		return st
	}
	st := &terminalState{
		acc:   NewAccumulator(p.cfg),
		field: NewFieldDebouncer(p.cfg),
		dedup: NewDeduper(p.cfg),
	}
	p.terminals[terminal] = st
	return st
}

// Keystroke feeds one scanner keystroke for the terminal. The returned code
// is non-empty when a burst just completed and passed duplicate suppression.
func (p *Pipeline) Keystroke(terminal string, r rune) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	at := p.now()
	st := p.state(terminal)
	code, ok := st.acc.Key(r, at)
	if !ok {
		return "", false
	}
	if !st.dedup.Allow(code, at) {
		return "", false
	}
	return code, true
}

// FieldInput records the manual entry field's content for the terminal.
func (p *Pipeline) FieldInput(terminal, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state(terminal).field.SetText(text, p.now())
}

// FieldPoll checks whether the manual field has settled into a resolvable
// code.
func (p *Pipeline) FieldPoll(terminal string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	at := p.now()
	st := p.state(terminal)
	code, ok := st.field.Poll(at)
	if !ok {
		return "", false
	}
	if !st.dedup.Allow(code, at) {
		return "", false
	}
	return code, true
}

// FieldSubmit resolves the manual field immediately, for an Enter press.
func (p *Pipeline) FieldSubmit(terminal string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.state(terminal)
	code, ok := st.field.Submit()
	if !ok {
		return "", false
	}
	st.field.Reset()
	return code, true
}

// ClearField resets the terminal's manual entry state after a resolution.
func (p *Pipeline) ClearField(terminal string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state(terminal).field.Reset()
}
