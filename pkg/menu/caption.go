package menu

import (
	"fmt"
	"time"
)

// Caption builds the post text accompanying the menu images.
// requestDate is the day the request was about, actualDate the day whose
// menu was actually found (an earlier weekday when the requested upload
// is missing).
func Caption(c Cantina, scenario Scenario, actualDate, requestDate time.Time, fromCache bool) string {
	cacheNote := ""
	if fromCache {
		cacheNote = " (from cache)"
	}
	sameDay := SameDay(actualDate, requestDate)
	actualHuman := HumanDate(actualDate)

	switch scenario {
	case ScenarioWeekend:
		return fmt.Sprintf("%s is closed during weekends. Here's the most recent menu from %s%s:",
			c.Name, actualHuman, cacheNote)

	case ScenarioBeforeOpen:
		return fmt.Sprintf("%s hasn't opened yet today. Here's the latest available menu from %s%s:",
			c.Name, actualHuman, cacheNote)

	case ScenarioAfterClose:
		if sameDay {
			return fmt.Sprintf("%s is closed for today, but here's today's menu%s:", c.Name, cacheNote)
		}
		return fmt.Sprintf("%s is closed for today. Here's the most recent menu from %s%s:",
			c.Name, actualHuman, cacheNote)

	default: // open and auto read the same
		if sameDay {
			return fmt.Sprintf("Here's today's %s menu%s:", c.Name, cacheNote)
		}
		return fmt.Sprintf("Here's the most recent %s menu from %s%s:", c.Name, actualHuman, cacheNote)
	}
}

// FailureMessage is the reply when no menu could be fetched at all.
func FailureMessage(c Cantina) string {
	return fmt.Sprintf("❌ Sorry, I couldn't fetch the %s menu right now. Please try again later.", c.Name)
}
