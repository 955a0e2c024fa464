package smartping

import (
	"context"
	"net/url"
	"strings"
)

const (
	OrganizationLeague     = "L"
	OrganizationDepartment = "D"
	ClubTeamsMale          = "M"
)

func (c *Client) FetchOrganizations(ctx context.Context, kind, parentID string) (string, error) {
	params := url.Values{}
	params.Set("type", strings.TrimSpace(kind))
	if parentID = strings.TrimSpace(parentID); parentID != "" {
		params.Set("pere", parentID)
	}
	return c.call(ctx, "xml_organisme.php", params)
}

func (c *Client) FetchEvents(ctx context.Context, organizationID, eventType string) (string, error) {
	params := url.Values{}
	params.Set("organisme", strings.TrimSpace(organizationID))
	params.Set("type", strings.TrimSpace(eventType))
	return c.call(ctx, "xml_epreuve.php", params)
}

func (c *Client) FetchDivisions(ctx context.Context, organizationID, eventID, eventType string) (string, error) {
	params := url.Values{}
	params.Set("organisme", strings.TrimSpace(organizationID))
	params.Set("epreuve", strings.TrimSpace(eventID))
	params.Set("type", strings.TrimSpace(eventType))
	return c.call(ctx, "xml_division.php", params)
}

func (c *Client) FetchPools(ctx context.Context, divisionID string) (string, error) {
	params := url.Values{}
	params.Set("action", "poule")
	params.Set("D1", strings.TrimSpace(divisionID))
	return c.call(ctx, "xml_result_equ.php", params)
}

func (c *Client) FetchStandings(ctx context.Context, divisionID, poolID string) (string, error) {
	params := url.Values{}
	params.Set("action", "classement")
	params.Set("D1", strings.TrimSpace(divisionID))
	params.Set("cx_poule", strings.TrimSpace(poolID))
	return c.call(ctx, "xml_result_equ.php", params)
}

func (c *Client) FetchFixtures(ctx context.Context, divisionID, poolID string) (string, error) {
	params := url.Values{}
	params.Set("D1", strings.TrimSpace(divisionID))
	params.Set("cx_poule", strings.TrimSpace(poolID))
	return c.call(ctx, "xml_result_equ.php", params)
}

func (c *Client) FetchClubTeams(ctx context.Context, clubNumber string) (string, error) {
	params := url.Values{}
	params.Set("numclu", strings.TrimSpace(clubNumber))
	params.Set("type", ClubTeamsMale)
	return c.call(ctx, "xml_equipe.php", params)
}

func (c *Client) FetchPlayer(ctx context.Context, licence string) (string, error) {
	params := url.Values{}
	params.Set("licence", strings.TrimSpace(licence))
	return c.call(ctx, "xml_joueur.php", params)
}

func (c *Client) FetchPlayerHistory(ctx context.Context, licence string) (string, error) {
	params := url.Values{}
	params.Set("numlic", strings.TrimSpace(licence))
	return c.call(ctx, "xml_histo_classement.php", params)
}

func (c *Client) FetchPlayerMatches(ctx context.Context, licence string) (string, error) {
	params := url.Values{}
	params.Set("licence", strings.TrimSpace(licence))
	return c.call(ctx, "xml_partie_mysql.php", params)
}
