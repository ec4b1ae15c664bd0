package sweep

// Event describes one frame to acquire, identified by its time point and
// z slice index.  Events are consumed in plan order.
type Event struct {
	// T is the time point index
	T int `json:"time"`

	// Z is the z slice index, addressing the ascending waveform half
	Z int `json:"z"`
}

// Plan returns the ordered event list for numTimePoints volumes over the
// given z indices.  The z order reverses between consecutive time points,
// so the capture path is a back-and-forth raster in z and consecutive
// frames are never more than one step apart.  zIdx is not mutated; each
// time point works on a fresh copy.
func Plan(numTimePoints int, zIdx []int) []Event {
	order := make([]int, len(zIdx))
	copy(order, zIdx)
	events := make([]Event, 0, numTimePoints*len(zIdx))
	for t := 0; t < numTimePoints; t++ {
		for _, z := range order {
			events = append(events, Event{T: t, Z: z})
		}
		reverseInts(order)
	}
	return events
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
