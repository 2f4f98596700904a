package io

// Tone follows the beeper, which sounds while the sound timer is non-zero.
type Tone struct {
	On    bool // Beeper state after the last update.
	Beeps int  // Number of off to on transitions.
}

// Update samples the sound timer. changed is set on every on/off edge.
func (tn *Tone) Update(sound uint8) (on, changed bool) {
	on = sound > 0
	changed = on != tn.On
	if changed && on {
		tn.Beeps++
	}
	tn.On = on
	return
}
