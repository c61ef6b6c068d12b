package menu

import "time"

// Scenario captures where a request falls relative to a cantina's
// serving hours; it drives both the candidate dates and the caption.
type Scenario string

const (
	ScenarioOpen       Scenario = "open"
	ScenarioBeforeOpen Scenario = "before_open"
	ScenarioAfterClose Scenario = "after_close"
	ScenarioWeekend    Scenario = "weekend"
	// ScenarioAuto is the daily scheduled post.
	ScenarioAuto Scenario = "auto"
)

// Situation determines the scenario for a request at now and the dates
// worth trying, newest first.
func (c Cantina) Situation(now time.Time) (Scenario, []time.Time) {
	today := Day(now)

	if IsWeekend(today) {
		return ScenarioWeekend, CandidateDates(today, false)
	}
	if OpenTime.After(now) {
		return ScenarioBeforeOpen, CandidateDates(today, false)
	}
	if c.Close.Before(now) {
		return ScenarioAfterClose, CandidateDates(today, true)
	}
	return ScenarioOpen, CandidateDates(today, true)
}
