package vacation

// =============================================================================
// PERIOD BUCKET CLASSIFIER - Symbolic token -> concrete date interval
// =============================================================================

// Interval is an inclusive [From, To] pair, applied by stores as a
// BETWEEN constraint on a date column.
type Interval struct {
	From Date
	To   Date
}

func (iv Interval) Contains(d Date) bool {
	return d.AfterOrEqual(iv.From) && d.BeforeOrEqual(iv.To)
}

func (iv Interval) String() string {
	return "[" + iv.From.String() + ", " + iv.To.String() + "]"
}

// Recognized bucket tokens.
const (
	TokenYesterday = "yesterday"
	TokenToday     = "today"
	TokenTomorrow  = "tomorrow"
	TokenPrevWeek  = "prev_week"
	TokenThisWeek  = "this_week"
	TokenNextWeek  = "next_week"
	TokenPrevMonth = "prev_month"
	TokenThisMonth = "this_month"
	TokenNextMonth = "next_month"
	TokenPrevYear  = "prev_year"
	TokenThisYear  = "this_year"
	TokenNextYear  = "next_year"
)

// Bucket maps a symbolic token plus a reference date to a concrete
// interval for filtering. Unrecognized tokens (including "") return nil,
// meaning "no constraint": the filter matches everything.
//
// The week/month/year buckets shift by the reference date's offset into
// its week/month/year, so e.g. "this_week" spans from the same weekday
// one week back to the same weekday one week forward.
//
// KNOWN QUIRK: this_year and next_year both compute forward from the
// reference date, so this_year degenerates to a single day one year out.
// That mirrors the system this engine replaces; it looks like an
// upstream defect but is preserved until product intent is confirmed.
func Bucket(token string, ref Date) *Interval {
	wday := ref.Weekday()
	mday := ref.Day()
	yday := ref.YearDay()

	switch token {
	case TokenYesterday:
		return &Interval{From: ref.AddDays(-2), To: ref.AddDays(-1)}
	case TokenToday:
		return &Interval{From: ref.AddDays(-1), To: ref.AddDays(1)}
	case TokenTomorrow:
		return &Interval{From: ref.AddDays(1), To: ref.AddDays(2)}

	case TokenPrevWeek:
		return &Interval{From: ref.AddDays(-14 + wday), To: ref.AddDays(-7 + wday)}
	case TokenThisWeek:
		return &Interval{From: ref.AddDays(-7 + wday), To: ref.AddDays(7 - wday)}
	case TokenNextWeek:
		return &Interval{From: ref.AddDays(7 - wday), To: ref.AddDays(14 - wday)}

	case TokenPrevMonth:
		return &Interval{From: ref.AddMonths(-2).AddDays(mday), To: ref.AddMonths(-1).AddDays(mday)}
	case TokenThisMonth:
		return &Interval{From: ref.AddMonths(-1).AddDays(mday), To: ref.AddMonths(1).AddDays(-mday)}
	case TokenNextMonth:
		return &Interval{From: ref.AddMonths(1).AddDays(-mday), To: ref.AddMonths(2).AddDays(-mday)}

	case TokenPrevYear:
		return &Interval{From: ref.AddYears(-2).AddDays(yday), To: ref.AddYears(-1).AddDays(yday)}
	case TokenThisYear:
		return &Interval{From: ref.AddYears(1).AddDays(-yday), To: ref.AddYears(1).AddDays(-yday)}
	case TokenNextYear:
		return &Interval{From: ref.AddYears(1).AddDays(-yday), To: ref.AddYears(2).AddDays(-yday)}

	default:
		return nil
	}
}
