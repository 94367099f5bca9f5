package monitor

// Series is a fixed-capacity ring of samples. Once full, each Push
// overwrites the oldest sample.
type Series struct {
	values []float64
	start  int
	size   int
}

// NewSeries creates a series holding at most capacity samples.
func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{values: make([]float64, capacity)}
}

// Push appends v.
func (s *Series) Push(v float64) {
	if s.size < len(s.values) {
		s.values[(s.start+s.size)%len(s.values)] = v
		s.size++
		return
	}
	s.values[s.start] = v
	s.start = (s.start + 1) % len(s.values)
}

// Values returns the samples oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, s.size)
	for i := range out {
		out[i] = s.values[(s.start+i)%len(s.values)]
	}
	return out
}

// Len returns the number of stored samples.
func (s *Series) Len() int { return s.size }

// Cap returns the capacity.
func (s *Series) Cap() int { return len(s.values) }

// Last returns the newest sample, or 0 when empty.
func (s *Series) Last() float64 {
	if s.size == 0 {
		return 0
	}
	return s.values[(s.start+s.size-1)%len(s.values)]
}

// History keeps one series per graphed metric.
type History struct {
	CPU  *Series
	Mem  *Series
	Temp *Series
	GPU  *Series
}

// NewHistory creates a history of capacity samples per series.
func NewHistory(capacity int) *History {
	return &History{
		CPU:  NewSeries(capacity),
		Mem:  NewSeries(capacity),
		Temp: NewSeries(capacity),
		GPU:  NewSeries(capacity),
	}
}

// Add records one sample in every series.
func (h *History) Add(m Metrics) {
	h.CPU.Push(m.CPUPercent)
	h.Mem.Push(m.MemPercent)
	h.Temp.Push(m.TempC)
	h.GPU.Push(m.GPUPercent)
}
