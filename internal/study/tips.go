package study

// fallbackTip is shown for a selected task that has no tip of its own.
const fallbackTip = "Stay focused and maintain your flow!"

// TipRotator cycles through the idle motivational tips.
type TipRotator struct {
	tips  []string
	index int
}

// NewTipRotator returns a rotator positioned at the first tip.
func NewTipRotator(tips []string) *TipRotator {
	return &TipRotator{tips: append([]string(nil), tips...)}
}

// Current returns the tip at the current position, or "" if there are none.
func (r *TipRotator) Current() string {
	if len(r.tips) == 0 {
		return ""
	}
	return r.tips[r.index]
}

// Advance moves to the next tip, wrapping around.
func (r *TipRotator) Advance() {
	if len(r.tips) == 0 {
		return
	}
	r.index = (r.index + 1) % len(r.tips)
}

// taskTip returns the tip to show while t is selected or running.
func taskTip(t *Task) string {
	if t == nil || t.Tip == "" {
		return fallbackTip
	}
	return t.Tip
}
