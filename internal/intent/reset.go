package intent

// Reset is the unknown-keyword supervisor: it forces Idle and discards any
// partial intent without attempting resolution.
func (m *Machine) Reset() Outcome {
	out := Outcome{From: m.state, To: Idle, Intent: m.acc.Value(), Reset: true}
	m.acc.Clear()
	m.state = Idle
	return out
}
