package usecase

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var seasonYearRegex = regexp.MustCompile(`\d{4}`)

// PlayerMatch is a match log line with its date normalized to YYYY-MM-DD.
type PlayerMatch struct {
	Date           string  `json:"date"`
	Victory        bool    `json:"victory"`
	PointsDelta    float64 `json:"points_delta"`
	OpponentName   string  `json:"opponent_name"`
	OpponentPoints string  `json:"opponent_points"`
	Coefficient    float64 `json:"coefficient"`
	Round          string  `json:"round"`
	Competition    string  `json:"competition"`
}

type SeasonRanking struct {
	Season  string  `json:"season"`
	Phase   int     `json:"phase"`
	Points  float64 `json:"points"`
	Echelon string  `json:"echelon"`
	Rank    string  `json:"rank"`
}

// PlayerStats is derived per request and never stored.
type PlayerStats struct {
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	MatchCount         int     `json:"match_count"`
	WinPercentage      float64 `json:"win_percentage"`
	PointsGained       float64 `json:"points_gained"`
	PointsLost         float64 `json:"points_lost"`
	NetBalance         float64 `json:"net_balance"`
	MonthlyProgression float64 `json:"monthly_progression"`
	AnnualProgression  float64 `json:"annual_progression"`
}

// ResolvedPoints holds the point values after the fallback chain is applied.
type ResolvedPoints struct {
	Current     float64
	Previous    float64
	SeasonStart float64
}

// ResolvePoints applies current month > previous month > season start >
// stored value. Previous and season start fall back to the resolved current
// value so a missing field yields a zero delta.
func ResolvePoints(current, previous, seasonStart *float64, stored float64) ResolvedPoints {
	out := ResolvedPoints{Current: stored}
	switch {
	case current != nil:
		out.Current = *current
	case previous != nil:
		out.Current = *previous
	case seasonStart != nil:
		out.Current = *seasonStart
	}

	out.Previous = out.Current
	if previous != nil {
		out.Previous = *previous
	}
	out.SeasonStart = out.Current
	if seasonStart != nil {
		out.SeasonStart = *seasonStart
	}
	return out
}

func ComputePlayerStats(matches []PlayerMatch, points ResolvedPoints) PlayerStats {
	var stats PlayerStats
	var gained, lost float64
	for _, m := range matches {
		if m.Victory {
			stats.Wins++
		} else {
			stats.Losses++
		}
		switch {
		case m.PointsDelta > 0:
			gained += m.PointsDelta
		case m.PointsDelta < 0:
			lost += -m.PointsDelta
		}
	}

	stats.MatchCount = len(matches)
	if stats.MatchCount > 0 {
		stats.WinPercentage = round1(float64(stats.Wins) * 100 / float64(stats.MatchCount))
	}
	stats.PointsGained = round1(gained)
	stats.PointsLost = round1(lost)
	stats.NetBalance = round1(stats.PointsGained - stats.PointsLost)
	stats.MonthlyProgression = round1(points.Current - points.Previous)
	stats.AnnualProgression = round1(points.Current - points.SeasonStart)
	return stats
}

// NormalizeMatchDate turns DD/MM/YYYY into YYYY-MM-DD. Other inputs are
// returned trimmed and unchanged.
func NormalizeMatchDate(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse("02/01/2006", raw)
	if err != nil {
		return raw
	}
	return parsed.Format(time.DateOnly)
}

func toPlayerMatches(items []FederationMatch) []PlayerMatch {
	out := make([]PlayerMatch, 0, len(items))
	for _, m := range items {
		out = append(out, PlayerMatch{
			Date:           NormalizeMatchDate(m.Date),
			Victory:        m.Victory,
			PointsDelta:    m.PointsDelta,
			OpponentName:   m.OpponentName,
			OpponentPoints: m.OpponentPoints,
			Coefficient:    m.Coefficient,
			Round:          m.Round,
			Competition:    m.Competition,
		})
	}
	SortMatchesByDate(out)
	return out
}

func toSeasonRankings(items []FederationRankingHistory) []SeasonRanking {
	out := make([]SeasonRanking, 0, len(items))
	for _, h := range items {
		out = append(out, SeasonRanking{
			Season:  h.Season,
			Phase:   h.Phase,
			Points:  h.Points,
			Echelon: h.Echelon,
			Rank:    h.Rank,
		})
	}
	SortSeasonHistory(out)
	return out
}

func SortMatchesByDate(items []PlayerMatch) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}

// SortSeasonHistory orders by season start year then phase, newest first.
func SortSeasonHistory(items []SeasonRanking) {
	sort.SliceStable(items, func(i, j int) bool {
		yi, yj := seasonYear(items[i].Season), seasonYear(items[j].Season)
		if yi != yj {
			return yi > yj
		}
		if items[i].Season != items[j].Season {
			return items[i].Season > items[j].Season
		}
		return items[i].Phase > items[j].Phase
	})
}

func seasonYear(season string) int {
	m := seasonYearRegex.FindString(season)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
