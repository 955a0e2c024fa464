package smartping

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

var ErrUpstream = crerr.New("smartping upstream error")

// Gateway turns raw client payloads into usecase records.
type Gateway struct {
	client    *Client
	extractor Extractor
}

var _ usecase.FederationProvider = (*Gateway)(nil)

func NewGateway(client *Client, extractor Extractor) *Gateway {
	if extractor == nil {
		extractor = NewPatternExtractor()
	}
	return &Gateway{client: client, extractor: extractor}
}

func (g *Gateway) Available() bool {
	return g != nil && g.client.Available()
}

// Initialize renews the client session serial.
func (g *Gateway) Initialize(ctx context.Context) (bool, error) {
	if !g.Available() {
		return false, ErrCredentialsMissing
	}
	return g.client.Initialize(ctx)
}

func (g *Gateway) Organizations(ctx context.Context, kind, parentID string) ([]usecase.FederationOrganization, error) {
	payload, err := g.fetch(ctx, "organizations", func(ctx context.Context) (string, error) {
		return g.client.FetchOrganizations(ctx, kind, parentID)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "organisme", "id", "libelle", "code", "idPere")
	out := make([]usecase.FederationOrganization, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationOrganization{
			ID:       r.String("id"),
			Name:     r.String("libelle"),
			Code:     r.String("code"),
			Kind:     kind,
			ParentID: r.String("idPere"),
		})
	}
	return out, nil
}

func (g *Gateway) Events(ctx context.Context, organizationID, eventType string) ([]usecase.FederationEvent, error) {
	payload, err := g.fetch(ctx, "events", func(ctx context.Context) (string, error) {
		return g.client.FetchEvents(ctx, organizationID, eventType)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "epreuve", "idepreuve", "libelle", "typepreuve")
	out := make([]usecase.FederationEvent, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationEvent{
			ID:   r.String("idepreuve"),
			Name: r.String("libelle"),
			Type: firstNonEmpty(r.String("typepreuve"), eventType),
		})
	}
	return out, nil
}

func (g *Gateway) Divisions(ctx context.Context, organizationID, eventID, eventType string) ([]usecase.FederationDivision, error) {
	payload, err := g.fetch(ctx, "divisions", func(ctx context.Context) (string, error) {
		return g.client.FetchDivisions(ctx, organizationID, eventID, eventType)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "division", "iddivision", "libelle")
	out := make([]usecase.FederationDivision, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationDivision{
			ID:   r.String("iddivision"),
			Name: r.String("libelle"),
		})
	}
	return out, nil
}

func (g *Gateway) Pools(ctx context.Context, divisionID string) ([]usecase.FederationPool, error) {
	payload, err := g.fetch(ctx, "pools", func(ctx context.Context) (string, error) {
		return g.client.FetchPools(ctx, divisionID)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "poule", "lien", "libelle")
	out := make([]usecase.FederationPool, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationPool{
			Link: r.String("lien"),
			Name: r.String("libelle"),
		})
	}
	return out, nil
}

func (g *Gateway) Standings(ctx context.Context, divisionID, poolID string) ([]usecase.FederationStanding, error) {
	payload, err := g.fetch(ctx, "standings", func(ctx context.Context) (string, error) {
		return g.client.FetchStandings(ctx, divisionID, poolID)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "classement",
		"clt", "equipe", "numero", "joue", "pts", "vic", "def", "nul", "pg", "pp")
	out := make([]usecase.FederationStanding, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationStanding{
			Rank:          r.Int("clt"),
			TeamName:      r.String("equipe"),
			ClubNumber:    r.String("numero"),
			Played:        r.Int("joue"),
			Points:        r.Int("pts"),
			Wins:          r.Int("vic"),
			Losses:        r.Int("def"),
			Draws:         r.Int("nul"),
			PointsFor:     r.Int("pg"),
			PointsAgainst: r.Int("pp"),
		})
	}
	return out, nil
}

func (g *Gateway) Fixtures(ctx context.Context, divisionID, poolID string) ([]usecase.FederationFixture, error) {
	payload, err := g.fetch(ctx, "fixtures", func(ctx context.Context) (string, error) {
		return g.client.FetchFixtures(ctx, divisionID, poolID)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "tour",
		"libelle", "equa", "equb", "scorea", "scoreb", "lien", "dateprevue", "datereelle")
	out := make([]usecase.FederationFixture, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationFixture{
			Round:         r.String("libelle"),
			TeamA:         r.String("equa"),
			TeamB:         r.String("equb"),
			ScoreA:        r.OptionalInt("scorea"),
			ScoreB:        r.OptionalInt("scoreb"),
			ScheduledDate: r.String("dateprevue"),
			ActualDate:    r.String("datereelle"),
			Link:          r.String("lien"),
		})
	}
	return out, nil
}

func (g *Gateway) ClubTeams(ctx context.Context, clubNumber string) ([]usecase.FederationClubTeam, error) {
	payload, err := g.fetch(ctx, "club teams", func(ctx context.Context) (string, error) {
		return g.client.FetchClubTeams(ctx, clubNumber)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "equipe",
		"idequipe", "libequipe", "libdivision", "liendivision", "idepr", "libepr")
	out := make([]usecase.FederationClubTeam, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationClubTeam{
			ID:            r.String("idequipe"),
			Name:          r.String("libequipe"),
			DivisionLabel: r.String("libdivision"),
			DivisionLink:  r.String("liendivision"),
			EventID:       r.String("idepr"),
			EventName:     r.String("libepr"),
		})
	}
	return out, nil
}

func (g *Gateway) Player(ctx context.Context, licence string) (usecase.FederationPlayer, error) {
	payload, err := g.fetch(ctx, "player", func(ctx context.Context) (string, error) {
		return g.client.FetchPlayer(ctx, licence)
	})
	if err != nil {
		return usecase.FederationPlayer{}, err
	}

	records := g.extractor.Extract(payload, "joueur",
		"licence", "nom", "prenom", "nclub", "club", "categ", "echelon", "place", "clglob",
		"point", "apoint", "valinit", "valcla")
	if len(records) == 0 {
		return usecase.FederationPlayer{}, crerr.Wrapf(ErrUpstream, "player %s: no joueur element", licence)
	}

	r := records[0]
	return usecase.FederationPlayer{
		Licence:           firstNonEmpty(r.String("licence"), licence),
		FirstName:         r.String("prenom"),
		LastName:          r.String("nom"),
		ClubNumber:        r.String("nclub"),
		ClubName:          r.String("club"),
		Category:          r.String("categ"),
		Echelon:           r.String("echelon"),
		RankLabel:         firstNonEmpty(r.String("place"), r.String("clglob")),
		CurrentPoints:     r.OptionalFloat("point"),
		PreviousPoints:    r.OptionalFloat("apoint"),
		SeasonStartPoints: r.OptionalFloat("valinit"),
		OfficialPoints:    r.OptionalFloat("valcla"),
	}, nil
}

func (g *Gateway) PlayerHistory(ctx context.Context, licence string) ([]usecase.FederationRankingHistory, error) {
	payload, err := g.fetch(ctx, "player history", func(ctx context.Context) (string, error) {
		return g.client.FetchPlayerHistory(ctx, licence)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "histo", "saison", "phase", "point", "echelon", "place")
	out := make([]usecase.FederationRankingHistory, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationRankingHistory{
			Season:  r.String("saison"),
			Phase:   r.Int("phase"),
			Points:  r.Float("point"),
			Echelon: r.String("echelon"),
			Rank:    r.String("place"),
		})
	}
	return out, nil
}

func (g *Gateway) PlayerMatches(ctx context.Context, licence string) ([]usecase.FederationMatch, error) {
	payload, err := g.fetch(ctx, "player matches", func(ctx context.Context) (string, error) {
		return g.client.FetchPlayerMatches(ctx, licence)
	})
	if err != nil {
		return nil, err
	}

	records := g.extractor.Extract(payload, "partie",
		"date", "vd", "pointres", "advnompre", "advclaof", "coefchamp", "numjourn", "codechamp")
	out := make([]usecase.FederationMatch, 0, len(records))
	for _, r := range records {
		out = append(out, usecase.FederationMatch{
			Date:           r.String("date"),
			Victory:        strings.EqualFold(r.String("vd"), "V"),
			PointsDelta:    r.Float("pointres"),
			OpponentName:   r.String("advnompre"),
			OpponentPoints: r.String("advclaof"),
			Coefficient:    r.Float("coefchamp"),
			Round:          r.String("numjourn"),
			Competition:    r.String("codechamp"),
		})
	}
	return out, nil
}

// fetch runs one raw call and rejects empty or <erreur> payloads.
func (g *Gateway) fetch(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("%w: %w", usecase.ErrFederationUnavailable, ErrCredentialsMissing)
	}

	payload, err := call(ctx)
	if err != nil {
		return "", crerr.Wrapf(err, "fetch %s", op)
	}
	if strings.TrimSpace(payload) == "" {
		return "", crerr.Wrapf(ErrUpstream, "%s: empty payload", op)
	}
	if msg, failed := UpstreamError(payload); failed {
		return "", crerr.Wrapf(ErrUpstream, "%s: %s", op, firstNonEmpty(msg, "erreur"))
	}
	return payload, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
