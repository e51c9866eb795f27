package model

// Weekday indexes the weekly template, Sunday first.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (w Weekday) String() string {
	if w < 0 || w > 6 {
		return "invalid"
	}
	return weekdayNames[w]
}

// WeeklyTemplate is a resource's recurring availability: the set of
// weekdays it works, plus a single daily working window shared by all of
// them. The window is half-open, StartMinute < EndMinute.
type WeeklyTemplate struct {
	Days        [7]bool
	StartMinute int
	EndMinute   int
}

// Working reports whether the resource works on the given weekday.
func (t WeeklyTemplate) Working(day Weekday) bool {
	if day < 0 || day > 6 {
		return false
	}
	return t.Days[day]
}

// Window returns the daily working window as an interval.
func (t WeeklyTemplate) Window() Interval {
	return Interval{Start: t.StartMinute, End: t.EndMinute}
}

// DefaultTemplate is the registry seed for new resources: Monday through
// Friday, 09:00 to 17:00.
func DefaultTemplate() WeeklyTemplate {
	return WeeklyTemplate{
		Days:        [7]bool{false, true, true, true, true, true, false},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
}
