// Package analytics computes the manager dashboard from raw clock events.
//
// Compute is a pure function of its Input: callers load the roster and
// events, this package only shapes them. Unless stated otherwise a series
// covers closed shifts whose clock-in falls in the trailing week.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/HIMANADH789/careworkers/internal/models"
)

const (
	WeekWindowDays  = 7
	MonthWindowDays = 28
	TopPerformerCap = 10

	dateLayout = "2006-01-02"
)

type Input struct {
	Now      time.Time
	Location *time.Location

	// Careworkers is the full roster; every member appears in per-staff
	// series even without shifts.
	Careworkers  []models.Worker
	ManagerCount int
	// TotalShifts is the all-time careworker event count, open or closed.
	TotalShifts int

	// Events must cover at least the trailing MonthWindowDays; older or
	// non-careworker rows are ignored.
	Events []models.WindowedEvent
}

type Snapshot struct {
	ActiveStaffCount           int              `json:"activeStaffCount"`
	TotalManagersCount         int              `json:"totalManagersCount"`
	TotalShifts                int              `json:"totalShifts"`
	WeeklyClockInCounts        []DayCount       `json:"weeklyClockInCounts"`
	AvgHoursPerDay             []DayHours       `json:"avgHoursPerDay"`
	TotalHoursPerStaffLastWeek []StaffHours     `json:"totalHoursPerStaffLastWeek"`
	RoleDistribution           []RoleShare      `json:"roleDistribution"`
	ShiftDurationDistribution  []DurationBucket `json:"shiftDurationDistribution"`
	MonthlyTrend               []WeekActivity   `json:"monthlyTrend"`
	PeakHoursData              []HourCount      `json:"peakHoursData"`
	CurrentDayStatus           DayStatus        `json:"currentDayStatus"`
	TopPerformers              []Performer      `json:"topPerformers"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DayHours struct {
	Date     string  `json:"date"`
	AvgHours float64 `json:"avgHours"`
}

type StaffHours struct {
	StaffID    uint    `json:"staffId"`
	Name       string  `json:"name"`
	TotalHours float64 `json:"totalHours"`
}

type RoleShare struct {
	Role       models.Role `json:"role"`
	Count      int         `json:"count"`
	Percentage int         `json:"percentage"`
}

type DurationBucket struct {
	Range      string `json:"range"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type WeekActivity struct {
	Week        string `json:"week"`
	ActiveUsers int    `json:"activeUsers"`
}

type HourCount struct {
	Hour     string `json:"hour"`
	ClockIns int    `json:"clockIns"`
}

type DayStatus struct {
	CurrentlyActive  int `json:"currentlyActive"`
	CompletedShifts  int `json:"completedShifts"`
	TotalTodayShifts int `json:"totalTodayShifts"`
}

type Performer struct {
	StaffID          uint    `json:"staffId"`
	Name             string  `json:"name"`
	TotalHours       float64 `json:"totalHours"`
	ShiftCount       int     `json:"shiftCount"`
	AvgHoursPerShift float64 `json:"avgHoursPerShift"`
}

// durationBuckets are half-open [Min, Max) in hours; the last has no Max.
var durationBuckets = []struct {
	Label string
	Min   float64
	Max   float64
}{
	{"0-4 hours", 0, 4},
	{"4-8 hours", 4, 8},
	{"8-12 hours", 8, 12},
	{"12+ hours", 12, math.Inf(1)},
}

type staffAgg struct {
	id     uint
	name   string
	hours  float64
	shifts int
}

func Compute(in Input) Snapshot {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := in.Now.In(loc)
	weekStart := now.AddDate(0, 0, -WeekWindowDays)
	monthStart := now.AddDate(0, 0, -MonthWindowDays)

	var week, month []models.WindowedEvent
	for _, ev := range in.Events {
		if ev.WorkerRole != "" && ev.WorkerRole != models.RoleCareworker {
			continue
		}
		if ev.ClockOutAt == nil {
			continue
		}
		if !ev.ClockInAt.Before(monthStart) {
			month = append(month, ev)
		}
		if !ev.ClockInAt.Before(weekStart) {
			week = append(week, ev)
		}
	}

	staff := rosterAggregates(in.Careworkers, week)

	return Snapshot{
		ActiveStaffCount:           len(in.Careworkers),
		TotalManagersCount:         in.ManagerCount,
		TotalShifts:                in.TotalShifts,
		WeeklyClockInCounts:        weeklyClockInCounts(week, loc),
		AvgHoursPerDay:             avgHoursPerDay(week, loc),
		TotalHoursPerStaffLastWeek: totalHoursPerStaff(staff),
		RoleDistribution:           roleDistribution(len(in.Careworkers), in.ManagerCount),
		ShiftDurationDistribution:  shiftDurationDistribution(week),
		MonthlyTrend:               monthlyTrend(month, monthStart),
		PeakHoursData:              peakHours(week, loc),
		CurrentDayStatus:           currentDayStatus(in.Events, now),
		TopPerformers:              topPerformers(staff),
	}
}

func hours(ev models.WindowedEvent) float64 {
	h := ev.Duration().Hours()
	if h < 0 {
		return 0
	}
	return h
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// byDay groups events by clock-in calendar date in loc, returning the dates
// in ascending order.
func byDay(events []models.WindowedEvent, loc *time.Location) ([]string, map[string][]models.WindowedEvent) {
	groups := make(map[string][]models.WindowedEvent)
	for _, ev := range events {
		day := ev.ClockInAt.In(loc).Format(dateLayout)
		groups[day] = append(groups[day], ev)
	}
	days := make([]string, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, groups
}

func distinctWorkers(events []models.WindowedEvent) int {
	seen := make(map[uint]struct{}, len(events))
	for _, ev := range events {
		seen[ev.WorkerID] = struct{}{}
	}
	return len(seen)
}

// weeklyClockInCounts counts distinct workers per day, not shifts.
func weeklyClockInCounts(week []models.WindowedEvent, loc *time.Location) []DayCount {
	days, groups := byDay(week, loc)
	out := make([]DayCount, 0, len(days))
	for _, day := range days {
		out = append(out, DayCount{Date: day, Count: distinctWorkers(groups[day])})
	}
	return out
}

func avgHoursPerDay(week []models.WindowedEvent, loc *time.Location) []DayHours {
	days, groups := byDay(week, loc)
	out := make([]DayHours, 0, len(days))
	for _, day := range days {
		var total float64
		for _, ev := range groups[day] {
			total += hours(ev)
		}
		avg := 0.0
		if n := distinctWorkers(groups[day]); n > 0 {
			avg = total / float64(n)
		}
		out = append(out, DayHours{Date: day, AvgHours: round2(avg)})
	}
	return out
}

func rosterAggregates(roster []models.Worker, week []models.WindowedEvent) []*staffAgg {
	byID := make(map[uint]*staffAgg, len(roster))
	out := make([]*staffAgg, 0, len(roster))
	for _, w := range roster {
		if _, dup := byID[w.ID]; dup {
			continue
		}
		agg := &staffAgg{id: w.ID, name: w.Name}
		byID[w.ID] = agg
		out = append(out, agg)
	}
	for _, ev := range week {
		agg, ok := byID[ev.WorkerID]
		if !ok {
			continue
		}
		agg.hours += hours(ev)
		agg.shifts++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].hours != out[j].hours {
			return out[i].hours > out[j].hours
		}
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].id < out[j].id
	})
	return out
}

func totalHoursPerStaff(staff []*staffAgg) []StaffHours {
	out := make([]StaffHours, 0, len(staff))
	for _, s := range staff {
		out = append(out, StaffHours{StaffID: s.id, Name: s.name, TotalHours: round2(s.hours)})
	}
	return out
}

func topPerformers(staff []*staffAgg) []Performer {
	n := min(len(staff), TopPerformerCap)
	out := make([]Performer, 0, n)
	for _, s := range staff[:n] {
		avg := 0.0
		if s.shifts > 0 {
			avg = round2(s.hours / float64(s.shifts))
		}
		out = append(out, Performer{
			StaffID:          s.id,
			Name:             s.name,
			TotalHours:       round2(s.hours),
			ShiftCount:       s.shifts,
			AvgHoursPerShift: avg,
		})
	}
	return out
}

// roleDistribution rounds each share independently; the two need not sum to 100.
func roleDistribution(careworkers, managers int) []RoleShare {
	total := careworkers + managers
	return []RoleShare{
		{Role: models.RoleCareworker, Count: careworkers, Percentage: percent(careworkers, total)},
		{Role: models.RoleManager, Count: managers, Percentage: percent(managers, total)},
	}
}

func bucketIndex(h float64) int {
	for i, b := range durationBuckets {
		if h >= b.Min && h < b.Max {
			return i
		}
	}
	return len(durationBuckets) - 1
}

func shiftDurationDistribution(week []models.WindowedEvent) []DurationBucket {
	counts := make([]int, len(durationBuckets))
	for _, ev := range week {
		counts[bucketIndex(hours(ev))]++
	}

	out := make([]DurationBucket, 0, len(durationBuckets))
	for i, b := range durationBuckets {
		out = append(out, DurationBucket{
			Range:      b.Label,
			Count:      counts[i],
			Percentage: percent(counts[i], len(week)),
		})
	}
	return out
}

// monthlyTrend splits the trailing 28 days into four 7-day windows, oldest
// first, and counts distinct workers with a closed shift starting in each.
func monthlyTrend(month []models.WindowedEvent, monthStart time.Time) []WeekActivity {
	const weeks = MonthWindowDays / WeekWindowDays
	out := make([]WeekActivity, 0, weeks)
	for i := 0; i < weeks; i++ {
		from := monthStart.AddDate(0, 0, i*WeekWindowDays)
		to := from.AddDate(0, 0, WeekWindowDays)

		var inWeek []models.WindowedEvent
		for _, ev := range month {
			if !ev.ClockInAt.Before(from) && ev.ClockInAt.Before(to) {
				inWeek = append(inWeek, ev)
			}
		}
		out = append(out, WeekActivity{
			Week:        fmt.Sprintf("Week %d", i+1),
			ActiveUsers: distinctWorkers(inWeek),
		})
	}
	return out
}

func peakHours(week []models.WindowedEvent, loc *time.Location) []HourCount {
	var counts [24]int
	for _, ev := range week {
		counts[ev.ClockInAt.In(loc).Hour()]++
	}
	out := make([]HourCount, 24)
	for h, c := range counts {
		out[h] = HourCount{Hour: fmt.Sprintf("%d:00", h), ClockIns: c}
	}
	return out
}

// currentDayStatus looks at every shift started today, open or closed.
func currentDayStatus(events []models.WindowedEvent, now time.Time) DayStatus {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var st DayStatus
	for _, ev := range events {
		if ev.WorkerRole != "" && ev.WorkerRole != models.RoleCareworker {
			continue
		}
		if ev.ClockInAt.Before(start) || !ev.ClockInAt.Before(end) {
			continue
		}
		st.TotalTodayShifts++
		if ev.Open() {
			st.CurrentlyActive++
		} else {
			st.CompletedShifts++
		}
	}
	return st
}
