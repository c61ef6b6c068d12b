// Package menu models the tracked cantinas: which ones exist, where
// their menu PDFs live, when they are open and how posts about them are
// phrased.
package menu

import (
	"fmt"
	"strings"
	"time"

	"cantinabot/pkg/config"
)

// OpenTime is when the cantinas start serving; menus are not posted
// automatically before this.
var OpenTime = config.Clock{Hour: 11, Minute: 30}

// URLBuilder produces the ordered candidate URLs for a cantina's menu on
// a given day. The first variant is the current upload naming scheme,
// later ones are legacy schemes still seen on older uploads.
type URLBuilder func(baseURL string, day time.Time) []string

// Cantina describes a tracked cantina.
type Cantina struct {
	// Key is the short identifier used in commands and cache keys.
	Key string

	// Name is the human-readable display name.
	Name string

	// Close is the local closing time.
	Close config.Clock

	// AutoPost marks the cantina for the daily scheduled post.
	AutoPost bool

	// URLs builds the candidate menu URLs for a date.
	URLs URLBuilder
}

// DefaultKey is the cantina used when a command names none.
const DefaultKey = "gau"

var cantinas = []Cantina{
	{
		Key:      "gau",
		Name:     "Gaudeamus",
		Close:    config.Clock{Hour: 14, Minute: 45},
		AutoPost: true,
		URLs:     gaudeamusURLs,
	},
	{
		Key:   "titu",
		Name:  "Titu Maiorescu",
		Close: config.Clock{Hour: 18, Minute: 45},
		URLs:  tituURLs,
	},
	{
		Key:   "aka",
		Name:  "Akademos",
		Close: config.Clock{Hour: 14, Minute: 45},
		URLs:  akademosURLs,
	},
}

// All returns every tracked cantina.
func All() []Cantina {
	out := make([]Cantina, len(cantinas))
	copy(out, cantinas)
	return out
}

// AutoPosted returns the cantinas included in the daily scheduled post.
func AutoPosted() []Cantina {
	var out []Cantina
	for _, c := range cantinas {
		if c.AutoPost {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a cantina by key.
func Lookup(key string) (Cantina, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range cantinas {
		if c.Key == key {
			return c, true
		}
	}
	return Cantina{}, false
}

// Default returns the default cantina.
func Default() Cantina {
	c, _ := Lookup(DefaultKey)
	return c
}

func monthPath(baseURL string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), day.Format("2006"), day.Format("01"))
}

func gaudeamusURLs(baseURL string, day time.Time) []string {
	base := monthPath(baseURL, day)
	return []string{
		fmt.Sprintf("%s/Meniu-site-GAU-%s.pdf", base, day.Format("02.01.2006")),
		fmt.Sprintf("%s/GAU-%s.pdf", base, strings.ToUpper(day.Format("02-Jan-2006"))),
	}
}

func tituURLs(baseURL string, day time.Time) []string {
	base := monthPath(baseURL, day)
	return []string{
		fmt.Sprintf("%s/meniu.pdf", base),
		fmt.Sprintf("%s/%d-%s-TM.pdf", base, day.Day(), strings.ToUpper(day.Format("Jan"))),
	}
}

func akademosURLs(baseURL string, day time.Time) []string {
	base := monthPath(baseURL, day)
	return []string{
		fmt.Sprintf("%s/MENIU-AKADEMOS-%s.pdf", base, day.Format("02.01.2006")),
		fmt.Sprintf("%s/AK-%s-.pdf", base, strings.ToUpper(day.Format("02-Jan-2006"))),
	}
}

// CandidateURLs returns the deduplicated candidate URLs for the cantina
// on a day, order preserved.
func (c Cantina) CandidateURLs(baseURL string, day time.Time) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, u := range c.URLs(baseURL, day) {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}
