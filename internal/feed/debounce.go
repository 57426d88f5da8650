package feed

// Token identifies one scheduled value.
type Token uint64

// Debouncer coalesces a burst of values into the last one. The caller owns
// the timer: it schedules a value, waits the quiet period, then fires with
// the returned token. Only the newest token fires.
type Debouncer struct {
	seq     Token
	pending string
	armed   bool
}

// Schedule records value as the pending one and returns its token.
func (d *Debouncer) Schedule(value string) Token {
	d.seq++
	d.pending = value
	d.armed = true
	return d.seq
}

// Fire returns the pending value if tok is still the newest token.
func (d *Debouncer) Fire(tok Token) (string, bool) {
	if !d.armed || tok != d.seq {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Flush returns the pending value immediately and cancels the timer.
func (d *Debouncer) Flush() (string, bool) {
	if !d.armed {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Cancel drops the pending value.
func (d *Debouncer) Cancel() { d.armed = false }

func (d *Debouncer) Pending() bool { return d.armed }
