package feed

// TriggerState is the end-reached guard of the scroll trigger.
type TriggerState int

const (
	Idle TriggerState = iota
	NearEnd
)

func (s TriggerState) String() string {
	if s == NearEnd {
		return "near-end"
	}
	return "idle"
}

// Trigger turns a stream of scroll positions into one "load next page"
// signal per crossing of the end threshold.
type Trigger struct {
	threshold int
	state     TriggerState
}

func NewTrigger(threshold int) *Trigger {
	if threshold < 0 {
		threshold = 0
	}
	return &Trigger{threshold: threshold}
}

// Observe records a scroll position and reports whether the guard just
// moved from Idle to NearEnd. The viewport is near the end when
// offset >= contentHeight - viewportHeight - threshold.
func (t *Trigger) Observe(offset, contentHeight, viewportHeight int) bool {
	near := offset >= contentHeight-viewportHeight-t.threshold
	switch {
	case near && t.state == Idle:
		t.state = NearEnd
		return true
	case !near && t.state == NearEnd:
		t.state = Idle
	}
	return false
}

// Reset forces the guard back to Idle.
func (t *Trigger) Reset() { t.state = Idle }

func (t *Trigger) State() TriggerState { return t.state }
