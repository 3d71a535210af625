package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/krolow/brasileirao-backend/models"
	"github.com/sirupsen/logrus"
)

// Selectors for the globoesporte score widget markup. Kept in one place so a
// markup change on the source site only touches this file.
const (
	roundNavigationSelector = ".tabela-navegacao-jogos .tabela-navegacao-seletor"
	currentRoundAttribute   = "data-rodada"
	lastRoundAttribute      = "data-rodadas-length"

	matchListSelector = "aside.lista-de-jogos"
	widgetAttribute   = "data-url-pattern-navegador-jogos"

	matchRowSelector      = ".placar-jogo"
	homeTeamSelector      = "span.placar-jogo-equipes-mandante"
	guestTeamSelector     = "span.placar-jogo-equipes-visitante"
	homeScoreSelector     = ".placar-jogo-equipes-placar-mandante"
	guestScoreSelector    = ".placar-jogo-equipes-placar-visitante"
	stadiumSelector       = ".placar-jogo-informacoes-local"
	matchInformationBlock = "div.placar-jogo-informacoes"
	kickoffDateSelector   = `meta[itemprop="startDate"]`
	matchLinkSelector     = "a.placar-jogo-link"
	kickoffDateLayout     = "2006-01-02"
	kickoffDatetimeLayout = "2006-01-02 15:04"
)

// kickoffTimeCorrection is the fixed offset the widget timestamps need to
// align with the league's published local kickoff time. A domain constant,
// not a timezone conversion.
const kickoffTimeCorrection = 3 * time.Hour

var kickoffTimePattern = regexp.MustCompile(`[0-9]{2}:[0-9]{2}`)

// MatchExtractor pulls structured championship records out of parsed
// globoesporte pages. It is stateless; all positional markup coupling of the
// scraper lives behind its three entry points.
type MatchExtractor struct{}

// NewMatchExtractor creates a new match extraction service
func NewMatchExtractor() *MatchExtractor {
	return &MatchExtractor{}
}

// ExtractRoundPointer reads the current and last round numbers from the
// landing page's round navigation widget.
func (e *MatchExtractor) ExtractRoundPointer(document *goquery.Document) (models.RoundPointer, error) {
	navigation := document.Find(roundNavigationSelector)

	current, err := strconv.Atoi(navigation.AttrOr(currentRoundAttribute, ""))
	if err != nil {
		return models.RoundPointer{}, fmt.Errorf("extracting current round: %w", err)
	}

	last, err := strconv.Atoi(navigation.AttrOr(lastRoundAttribute, ""))
	if err != nil {
		return models.RoundPointer{}, fmt.Errorf("extracting last round: %w", err)
	}

	return models.RoundPointer{Current: current, Last: last}, nil
}

// ExtractWidgetTemplate reads the per-round URL pattern the landing page
// advertises for its match list navigator.
func (e *MatchExtractor) ExtractWidgetTemplate(document *goquery.Document) (string, error) {
	widget, exists := document.Find(matchListSelector).Attr(widgetAttribute)
	if !exists || widget == "" {
		return "", fmt.Errorf("match list widget pattern not found in page")
	}

	return widget, nil
}

// ExtractMatches returns the ordered list of matches found on a round page
// (or on the landing page, which embeds the current round).
func (e *MatchExtractor) ExtractMatches(document *goquery.Document) []models.Match {
	matches := make([]models.Match, 0)

	document.Find(matchRowSelector).Each(func(_ int, row *goquery.Selection) {
		matches = append(matches, e.extractMatch(row))
	})

	return matches
}

func (e *MatchExtractor) extractMatch(row *goquery.Selection) models.Match {
	home := row.Find(homeTeamSelector)
	guest := row.Find(guestTeamSelector)

	return models.Match{
		Home: models.TeamScore{
			Name:   home.Find("meta").AttrOr("content", ""),
			Shield: home.Find("img").AttrOr("src", ""),
			Score:  normalizeText(row.Find(homeScoreSelector).Text()),
		},
		Guest: models.TeamScore{
			Name:   guest.Find("meta").AttrOr("content", ""),
			Shield: guest.Find("img").AttrOr("src", ""),
			Score:  normalizeText(row.Find(guestScoreSelector).Text()),
		},
		Stadium:  normalizeText(row.Find(stadiumSelector).Text()),
		Datetime: e.extractKickoff(row),
		URL:      row.Find(matchLinkSelector).AttrOr("href", ""),
	}
}

// extractKickoff derives the match datetime. The date always comes from the
// structured startDate meta tag; the kickoff time, when published, appears as
// an HH:MM token inside the match information block. Rows without a time
// token become a date-only midnight placeholder.
func (e *MatchExtractor) extractKickoff(row *goquery.Selection) time.Time {
	date := row.Find(kickoffDateSelector).AttrOr("content", "")

	token := kickoffTimePattern.FindString(row.Find(matchInformationBlock).Text())
	if token == "" {
		midnight, err := time.ParseInLocation(kickoffDateLayout, date, time.UTC)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "MatchExtractor",
				"date":      date,
			}).Warn("Match row carries no parseable kickoff date")
			return time.Time{}
		}
		return midnight
	}

	kickoff, err := time.ParseInLocation(kickoffDatetimeLayout, date+" "+token, time.UTC)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "MatchExtractor",
			"date":      date,
			"time":      token,
		}).Warn("Match row carries an unparseable kickoff datetime")
		return time.Time{}
	}

	return kickoff.Add(kickoffTimeCorrection)
}

// normalizeText collapses the whitespace goquery keeps from the markup.
func normalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
