package audio

import "math"

const toneAttack = 0.02

// Note is one enveloped sine partial of a chime.
type Note struct {
	Frequency float64 // Hz
	Offset    float64 // seconds from the start of the chime
	Length    float64 // seconds
	Gain      float64 // peak gain
}

// Tone renders notes into a mono buffer at sampleRate. Each note ramps
// linearly to its gain over 20 ms and decays exponentially to 0.01 by its
// end. Overlapping notes are summed.
func Tone(sampleRate int, notes ...Note) *Buffer {
	var total float64
	for _, n := range notes {
		if end := n.Offset + n.Length; end > total {
			total = end
		}
	}
	frames := int(math.Round(total * float64(sampleRate)))
	data := make([]float32, frames)
	for _, n := range notes {
		renderNote(data, sampleRate, n)
	}
	return &Buffer{SampleRate: sampleRate, Data: [][]float32{data}}
}

func renderNote(dst []float32, sampleRate int, n Note) {
	if n.Length <= 0 || n.Gain <= 0 {
		return
	}
	start := int(math.Round(n.Offset * float64(sampleRate)))
	count := int(math.Round(n.Length * float64(sampleRate)))
	attack := math.Min(toneAttack, n.Length)
	floor := math.Min(0.01, n.Gain)
	for i := 0; i < count && start+i < len(dst); i++ {
		t := float64(i) / float64(sampleRate)
		var g float64
		if t < attack {
			g = n.Gain * t / attack
		} else {
			span := n.Length - attack
			frac := 1.0
			if span > 0 {
				frac = (t - attack) / span
			}
			g = n.Gain * math.Pow(floor/n.Gain, frac)
		}
		dst[start+i] += float32(g * math.Sin(2*math.Pi*n.Frequency*t))
	}
}

// Ding is the short cue played at the end of a model turn and after a
// booking.
func Ding() *Buffer {
	return Tone(OutputSampleRate, Note{Frequency: 880, Length: 0.4, Gain: 0.1})
}

// ConnectChime is the rising two-note cue played when a session opens.
func ConnectChime() *Buffer {
	return Tone(OutputSampleRate,
		Note{Frequency: 523.25, Length: 0.15, Gain: 0.08},
		Note{Frequency: 659.25, Offset: 0.12, Length: 0.25, Gain: 0.08},
	)
}
