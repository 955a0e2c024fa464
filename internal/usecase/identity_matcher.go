package usecase

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultTeamNumber = "1"

var (
	trailingNumberRegex = regexp.MustCompile(`(\d+)\s*$`)
	poolLabelRegex      = regexp.MustCompile(`(?i)poule\s+(\S+)`)
	phaseLabelRegex     = regexp.MustCompile(`(?i)phase\s+(\d+)`)
)

type IdentityConfig struct {
	ClubNumber   string
	Abbreviation string
	NameVariants []string
}

// IdentityMatcher decides which federation rows belong to the club and maps
// federation team names onto stored team names.
type IdentityMatcher struct {
	clubNumber   string
	abbreviation string
	variants     []string
}

func NewIdentityMatcher(cfg IdentityConfig) *IdentityMatcher {
	variants := make([]string, 0, len(cfg.NameVariants))
	for _, v := range cfg.NameVariants {
		if folded := foldText(v); folded != "" {
			variants = append(variants, folded)
		}
	}
	return &IdentityMatcher{
		clubNumber:   strings.TrimSpace(cfg.ClubNumber),
		abbreviation: strings.TrimSpace(cfg.Abbreviation),
		variants:     variants,
	}
}

func (m *IdentityMatcher) ClubNumber() string {
	return m.clubNumber
}

// ForClub returns a matcher sharing name rules but targeting another club number.
func (m *IdentityMatcher) ForClub(clubNumber string) *IdentityMatcher {
	clubNumber = strings.TrimSpace(clubNumber)
	if clubNumber == "" || clubNumber == m.clubNumber {
		return m
	}
	return &IdentityMatcher{
		clubNumber:   clubNumber,
		abbreviation: m.abbreviation,
		variants:     m.variants,
	}
}

// MatchesClub compares club numbers when the row carries one. Name variants
// are only consulted for rows without a number.
func (m *IdentityMatcher) MatchesClub(rowClubNumber, rowName string) bool {
	if rowClubNumber = strings.TrimSpace(rowClubNumber); rowClubNumber != "" {
		return m.clubNumber != "" && rowClubNumber == m.clubNumber
	}

	name := foldText(rowName)
	if name == "" {
		return false
	}
	for _, variant := range m.variants {
		if strings.Contains(name, variant) {
			return true
		}
	}
	return false
}

// TeamNumber returns the trailing number of a team name, "1" when absent.
func TeamNumber(name string) string {
	m := trailingNumberRegex.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return defaultTeamNumber
	}
	n := strings.TrimLeft(m[1], "0")
	if n == "" {
		return defaultTeamNumber
	}
	return n
}

func (m *IdentityMatcher) CanonicalTeamName(name string) string {
	return strings.TrimSpace(m.abbreviation + " " + TeamNumber(name))
}

// PoolLabel extracts X out of "... Poule X ...", or "" when there is no pool.
func PoolLabel(divisionLabel string) string {
	m := poolLabelRegex.FindStringSubmatch(divisionLabel)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], " ,;-")
}

func PhaseLabel(label string) string {
	m := phaseLabelRegex.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParsePoolLink reads division and pool ids from a link token such as
// "cx_poule=123&D1=456" or a full results URL.
func ParsePoolLink(link string) (divisionID, poolID string, ok bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", "", false
	}
	if idx := strings.Index(link, "?"); idx >= 0 {
		link = link[idx+1:]
	}
	link = strings.ReplaceAll(link, "&amp;", "&")

	values, err := url.ParseQuery(link)
	if err != nil {
		return "", "", false
	}
	poolID = strings.TrimSpace(values.Get("cx_poule"))
	divisionID = strings.TrimSpace(values.Get("D1"))
	return divisionID, poolID, poolID != ""
}

func PoolLinkToken(divisionID, poolID string) string {
	return "cx_poule=" + url.QueryEscape(poolID) + "&D1=" + url.QueryEscape(divisionID)
}

func foldText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}
