package scanner

import (
	"strings"
	"time"

	"github.com/lankapos/pos-backend/pkg/config"
)

// Accumulator turns raw keystrokes into complete scan codes. Hardware barcode
// scanners type the whole code in a fast burst and finish with Enter; a pause
// longer than the idle window means the burst is over. Codes shorter than the
// configured minimum are discarded as stray keystrokes.
//
// The accumulator is timestamp-driven: callers pass the time of each event,
// so it runs no timers of its own.
type Accumulator struct {
	cfg     config.ScannerConfig
	buf     strings.Builder
	lastKey time.Time
}

// NewAccumulator builds an empty accumulator.
func NewAccumulator(cfg config.ScannerConfig) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Key feeds one keystroke. Enter closes the current burst immediately; any
// other rune extends it. The returned code is non-empty when a complete scan
// just closed. A keystroke arriving after the idle window first closes the
// previous burst, and the new rune starts the next one.
func (a *Accumulator) Key(r rune, at time.Time) (string, bool) {
	if r == '\r' || r == '\n' {
		return a.Flush(at)
	}

	var closed string
	var ok bool
	if a.buf.Len() > 0 && at.Sub(a.lastKey) > a.cfg.ScanIdleWindow {
		closed, ok = a.Flush(at)
	}

	a.buf.WriteRune(r)
	a.lastKey = at
	return closed, ok
}

// Flush closes the current burst, returning the code when it is long enough
// to be a real scan.
func (a *Accumulator) Flush(at time.Time) (string, bool) {
	code := strings.TrimSpace(a.buf.String())
	a.buf.Reset()
	a.lastKey = at
	if len(code) < a.cfg.MinScanLength {
		return "", false
	}
	return code, true
}

// FieldDebouncer watches a manual entry field and decides when its content is
// worth resolving: either the cashier pressed Enter, or the text sat
// unchanged for the debounce interval and is long enough to be a barcode
// typed by hand.
type FieldDebouncer struct {
	cfg       config.ScannerConfig
	text      string
	changedAt time.Time
	emitted   bool
}

// NewFieldDebouncer builds a debouncer for one input field.
func NewFieldDebouncer(cfg config.ScannerConfig) *FieldDebouncer {
	return &FieldDebouncer{cfg: cfg}
}

// SetText records the field's current content.
func (d *FieldDebouncer) SetText(text string, at time.Time) {
	text = strings.TrimSpace(text)
	if text == d.text {
		return
	}
	d.text = text
	d.changedAt = at
	d.emitted = false
}

// Poll reports the field content once it has been stable long enough. Each
// stable value is emitted at most once.
func (d *FieldDebouncer) Poll(at time.Time) (string, bool) {
	if d.emitted || d.text == "" {
		return "", false
	}
	if len(d.text) < d.cfg.MinFieldLength {
		return "", false
	}
	if at.Sub(d.changedAt) < d.cfg.FieldDebounce {
		return "", false
	}
	d.emitted = true
	return d.text, true
}

// Submit returns the field content immediately, for an explicit Enter press.
// Length rules do not apply; the cashier asked for exactly this lookup.
func (d *FieldDebouncer) Submit() (string, bool) {
	if d.text == "" {
		return "", false
	}
	d.emitted = true
	return d.text, true
}

// Reset clears the field state, typically after a successful resolution.
func (d *FieldDebouncer) Reset() {
	d.text = ""
	d.emitted = false
}

// Deduper suppresses repeat resolutions of the same code in quick succession.
// Scanners held over a barcode fire several times a second; only the first
// read within the window should hit the cart.
type Deduper struct {
	cfg      config.ScannerConfig
	lastCode string
	lastSeen time.Time
}

// NewDeduper builds an empty deduper.
func NewDeduper(cfg config.ScannerConfig) *Deduper {
	return &Deduper{cfg: cfg}
}

// Allow reports whether the code should be processed. A repeat of the
// previous code inside the duplicate window is rejected; anything else
// resets the window.
func (d *Deduper) Allow(code string, at time.Time) bool {
	if code == d.lastCode && at.Sub(d.lastSeen) <= d.cfg.DuplicateWindow {
		d.lastSeen = at
		return false
	}
	d.lastCode = code
	d.lastSeen = at
	return true
}
