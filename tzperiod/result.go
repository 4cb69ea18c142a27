package tzperiod

// Result is the outcome of resolving a local time in a zone.
// It is one of Unambiguous, Ambiguous or Gap.
//
//	switch r := r.(type) {
//	case tzperiod.Unambiguous:
//	case tzperiod.Ambiguous:
//	case tzperiod.Gap:
//	}
type Result interface {
	// Periods returns the matching periods in timeline order.
	Periods() []Period
	result()
}

// Unambiguous is a time that lies in exactly one period.
type Unambiguous struct {
	Period Period
}

// Ambiguous is a wall clock time that occurs twice, typically when clocks fall back.
// Earlier precedes Later on the timeline.
type Ambiguous struct {
	Earlier Period
	Later   Period
}

// Gap is a wall clock time that never occurred, typically when clocks spring forward.
// Before ends and After starts at the same instant, around the missing time.
type Gap struct {
	Before Period
	After  Period
}

func (r Unambiguous) Periods() []Period { return []Period{r.Period} }
func (r Ambiguous) Periods() []Period   { return []Period{r.Earlier, r.Later} }
func (Gap) Periods() []Period           { return nil }

func (Unambiguous) result() {}
func (Ambiguous) result()   {}
func (Gap) result()         {}
