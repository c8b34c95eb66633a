package domain

// Traceability grades how well the origin of a transaction can be verified.
type Traceability string

const (
	TraceabilityFull        Traceability = "FULL"
	TraceabilityConditional Traceability = "CONDITIONAL"
	TraceabilityPartial     Traceability = "PARTIAL"
	TraceabilityIncomplete  Traceability = "INCOMPLETE"
)

// traceabilityRanks orders grades from worst (1) to best (4).
var traceabilityRanks = map[Traceability]int{
	TraceabilityIncomplete:  1,
	TraceabilityPartial:     2,
	TraceabilityConditional: 3,
	TraceabilityFull:        4,
}

// AllTraceabilities returns every grade, best first.
func AllTraceabilities() []Traceability {
	return []Traceability{
		TraceabilityFull,
		TraceabilityConditional,
		TraceabilityPartial,
		TraceabilityIncomplete,
	}
}

// Rank returns the ordinal value of the grade, 0 for unknown values.
func (t Traceability) Rank() int {
	return traceabilityRanks[t]
}

// IsValid reports whether t is one of the four known grades.
func (t Traceability) IsValid() bool {
	_, ok := traceabilityRanks[t]
	return ok
}

// Less reports whether t is a worse grade than other.
func (t Traceability) Less(other Traceability) bool {
	return t.Rank() < other.Rank()
}

// MinTraceability returns the worst grade among grades. Unknown values are
// ignored. The boolean is false when no valid grade was supplied.
func MinTraceability(grades ...Traceability) (Traceability, bool) {
	var (
		worst Traceability
		found bool
	)
	for _, g := range grades {
		if !g.IsValid() {
			continue
		}
		if !found || g.Less(worst) {
			worst = g
			found = true
		}
	}
	return worst, found
}

// MinTraceabilityOrIncomplete is MinTraceability with INCOMPLETE as the
// result for an empty input.
func MinTraceabilityOrIncomplete(grades ...Traceability) Traceability {
	if worst, ok := MinTraceability(grades...); ok {
		return worst
	}
	return TraceabilityIncomplete
}

// ClassifyProducer assigns the grade of a chain root from its declared
// location source.
func ClassifyProducer(location *LocationType, buyingFromFarmer bool) Traceability {
	if location != nil {
		switch *location {
		case LocationQR, LocationGPS:
			return TraceabilityFull
		case LocationManual, LocationFile:
			return TraceabilityConditional
		}
	}
	if buyingFromFarmer {
		return TraceabilityPartial
	}
	return TraceabilityIncomplete
}

// TraceabilityCounts is a per-grade tally. All four grades are always present.
type TraceabilityCounts map[Traceability]int

// NewTraceabilityCounts returns a tally with every grade set to zero.
func NewTraceabilityCounts() TraceabilityCounts {
	counts := make(TraceabilityCounts, len(traceabilityRanks))
	for _, g := range AllTraceabilities() {
		counts[g] = 0
	}
	return counts
}

// Add increments the tally for grade; unknown grades are dropped.
func (c TraceabilityCounts) Add(grade Traceability, n int) {
	if !grade.IsValid() {
		return
	}
	c[grade] += n
}

// Merge adds every count in other into c.
func (c TraceabilityCounts) Merge(other TraceabilityCounts) {
	for g, n := range other {
		c.Add(g, n)
	}
}

// Total returns the sum over all grades.
func (c TraceabilityCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
