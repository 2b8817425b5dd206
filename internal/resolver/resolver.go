// Package resolver picks the authoritative version of vendor files under the
// TxF > TxR > Tx2 priority scheme.
package resolver

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ruitoque/fronteras/internal/models"
)

// ResolvePriority returns the names of the first tier, in T1, T2, T3 order,
// that has any file for the feed. Names of different tiers are never mixed.
// The input order is preserved.
func ResolvePriority(names []string, feed models.Feed) []string {
	if !known(feed) {
		return []string{}
	}
	for _, tier := range models.TierOrder {
		matched := make([]string, 0)
		for _, name := range names {
			if strings.HasPrefix(name, feed.Prefix()) && strings.HasSuffix(name, tier.Extension()) {
				matched = append(matched, name)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return []string{}
}

// HasTier reports whether any name belongs to the feed at the given tier.
func HasTier(names []string, feed models.Feed, tier models.Tier) bool {
	for _, name := range names {
		if strings.HasPrefix(name, feed.Prefix()) && strings.HasSuffix(name, tier.Extension()) {
			return true
		}
	}
	return false
}

// Parse decodes a vendor filename of the form <prefix><MMDD><ext>.
func Parse(name string) (models.Candidate, bool) {
	for _, feed := range models.Feeds {
		if !strings.HasPrefix(name, feed.Prefix()) {
			continue
		}
		for _, tier := range models.TierOrder {
			if !strings.HasSuffix(name, tier.Extension()) {
				continue
			}
			stem := strings.TrimSuffix(strings.TrimPrefix(name, feed.Prefix()), tier.Extension())
			if len(stem) != 4 {
				return models.Candidate{}, false
			}
			month, err := strconv.Atoi(stem[:2])
			if err != nil || month < 1 || month > 12 {
				return models.Candidate{}, false
			}
			day, err := strconv.Atoi(stem[2:])
			if err != nil || day < 1 || day > 31 {
				return models.Candidate{}, false
			}
			return models.Candidate{Name: name, Feed: feed, Month: month, Day: day, Tier: tier}, true
		}
	}
	return models.Candidate{}, false
}

// Candidates parses every recognized vendor filename of a feed.
func Candidates(names []string, feed models.Feed) []models.Candidate {
	out := make([]models.Candidate, 0)
	for _, name := range names {
		c, ok := Parse(name)
		if ok && c.Feed == feed {
			out = append(out, c)
		}
	}
	return out
}

// BestPerDay keeps the highest tier of each (feed, day) and returns the
// survivors sorted by day.
func BestPerDay(cands []models.Candidate) []models.Candidate {
	best := make(map[string]models.Candidate)
	for _, c := range cands {
		key := string(c.Feed) + c.DayKey()
		if cur, ok := best[key]; !ok || c.Tier > cur.Tier {
			best[key] = c
		}
	}
	out := make([]models.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayKey() != out[j].DayKey() {
			return out[i].DayKey() < out[j].DayKey()
		}
		return out[i].Feed < out[j].Feed
	})
	return out
}

// Superseded returns the names that lose against a higher tier of the same
// (feed, day).
func Superseded(cands []models.Candidate) []string {
	keep := make(map[string]bool)
	for _, c := range BestPerDay(cands) {
		keep[c.Name] = true
	}
	out := make([]string, 0)
	for _, c := range cands {
		if !keep[c.Name] {
			out = append(out, c.Name)
		}
	}
	sort.Strings(out)
	return out
}

func known(feed models.Feed) bool {
	for _, f := range models.Feeds {
		if f == feed {
			return true
		}
	}
	return false
}
