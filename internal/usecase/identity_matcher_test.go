package usecase

import "testing"

func TestTeamNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want string
	}{
		{name: "CLUB X 12", want: "12"},
		{name: "CLUB X", want: "1"},
		{name: "CLUB X 3 ", want: "3"},
		{name: "CLUB X 04", want: "4"},
		{name: "", want: "1"},
	}
	for _, tc := range cases {
		if got := TeamNumber(tc.name); got != tc.want {
			t.Fatalf("team number of %q: got=%s want=%s", tc.name, got, tc.want)
		}
	}
}

func TestIdentityMatcher_CanonicalTeamName(t *testing.T) {
	t.Parallel()

	m := NewIdentityMatcher(IdentityConfig{ClubNumber: "222", Abbreviation: "ASPTT"})
	if got := m.CanonicalTeamName("A.S.P.T.T. STRASBOURG 5"); got != "ASPTT 5" {
		t.Fatalf("unexpected canonical name: %q", got)
	}
	if got := m.CanonicalTeamName("A.S.P.T.T. STRASBOURG"); got != "ASPTT 1" {
		t.Fatalf("unexpected canonical name without number: %q", got)
	}
}

func TestIdentityMatcher_MatchesClub(t *testing.T) {
	t.Parallel()

	m := NewIdentityMatcher(IdentityConfig{
		ClubNumber:   "222",
		Abbreviation: "SLT",
		NameVariants: []string{"Saint-Léger TT", "SLTT"},
	})

	cases := []struct {
		label  string
		number string
		name   string
		want   bool
	}{
		{label: "same number", number: "222", name: "anything", want: true},
		{label: "other number with matching name", number: "333", name: "SAINT-LEGER TT 2", want: false},
		{label: "no number, diacritic folded", number: "", name: "SAINT-LEGER TT 2", want: true},
		{label: "no number, second variant", number: "", name: "sltt 4", want: true},
		{label: "no number, no match", number: "", name: "PPC VILLEURBANNE", want: false},
		{label: "nothing", number: "", name: "", want: false},
	}
	for _, tc := range cases {
		if got := m.MatchesClub(tc.number, tc.name); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.label, got, tc.want)
		}
	}
}

func TestIdentityMatcher_ForClub(t *testing.T) {
	t.Parallel()

	m := NewIdentityMatcher(IdentityConfig{ClubNumber: "222", Abbreviation: "SLT"})
	other := m.ForClub("333")
	if other.ClubNumber() != "333" || m.ClubNumber() != "222" {
		t.Fatalf("unexpected club numbers: base=%s other=%s", m.ClubNumber(), other.ClubNumber())
	}
	if !other.MatchesClub("333", "") || other.MatchesClub("222", "") {
		t.Fatalf("retargeted matcher must only match its own number")
	}
	if m.ForClub("") != m {
		t.Fatalf("empty club number must keep the base matcher")
	}
}

func TestPoolLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Departementale 2 Poule B": "B",
		"R3 poule 4 - Phase 2":     "4",
		"Pre-Nationale":            "",
		"PN POULE  C":              "C",
		"":                         "",
	}
	for label, want := range cases {
		if got := PoolLabel(label); got != want {
			t.Fatalf("pool label of %q: got=%q want=%q", label, got, want)
		}
	}
}

func TestParsePoolLink(t *testing.T) {
	t.Parallel()

	cases := []struct {
		link     string
		division string
		pool     string
		ok       bool
	}{
		{link: "cx_poule=123&D1=456", division: "456", pool: "123", ok: true},
		{link: "cx_poule=123&amp;D1=456&organisme_pere=67", division: "456", pool: "123", ok: true},
		{link: "https://example.org/res.php?D1=9&cx_poule=8", division: "9", pool: "8", ok: true},
		{link: "D1=9", division: "9", pool: "", ok: false},
		{link: "", ok: false},
	}
	for _, tc := range cases {
		division, pool, ok := ParsePoolLink(tc.link)
		if ok != tc.ok || division != tc.division || pool != tc.pool {
			t.Fatalf("parse %q: got=(%q,%q,%v) want=(%q,%q,%v)", tc.link, division, pool, ok, tc.division, tc.pool, tc.ok)
		}
	}

	if got := PoolLinkToken("456", "123"); got != "cx_poule=123&D1=456" {
		t.Fatalf("unexpected link token: %q", got)
	}
}
