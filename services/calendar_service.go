package services

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krolow/brasileirao-backend/models"
	"github.com/krolow/brasileirao-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	// matchDuration is 90 minutes of play plus halftime and stoppage.
	matchDuration = 110 * time.Minute

	icalTimeLayout  = "20060102T150405"
	icalStampLayout = "20060102T150405Z"
)

// CalendarConfiguration holds configuration parameters for the calendar service
type CalendarConfiguration struct {
	APIURLTemplate string        // Season scoreboard API, carries a %serie% token
	RequestTimeout time.Duration // Overall deadline for the season fetch
}

// NewDefaultCalendarConfiguration returns production-ready default configuration.
// The generous timeout covers the scoreboard API's cold starts.
func NewDefaultCalendarConfiguration() *CalendarConfiguration {
	return &CalendarConfiguration{
		APIURLTemplate: "https://webtask.it.auth0.com/api/run/wt-krolow-gmail_com-0/brasileirao?serie=%serie%",
		RequestTimeout: 130 * time.Second,
	}
}

// CalendarService builds per-team iCalendar subscription files from the
// season scoreboard API. This pipeline is independent of the scraping
// pipeline and its cache: different data source, no caching, no retries.
type CalendarService struct {
	configuration *CalendarConfiguration
	client        *http.Client
}

// NewCalendarService creates a new calendar service. A nil configuration
// selects the production defaults.
func NewCalendarService(configuration *CalendarConfiguration, clients *shared.HTTPClientFactory) *CalendarService {
	if configuration == nil {
		configuration = NewDefaultCalendarConfiguration()
	}

	return &CalendarService{
		configuration: configuration,
		client:        clients.CreateOptimizedHTTPClient(configuration.RequestTimeout),
	}
}

// GenerateCalendar fetches the season snapshot for a serie and renders the
// iCalendar text for every match of one team that has a known kickoff time.
func (s *CalendarService) GenerateCalendar(ctx context.Context, serie, team string) (string, error) {
	championship, err := s.fetchSeason(ctx, serie)
	if err != nil {
		return "", err
	}

	matches := withKnownKickoff(teamMatches(championship.Rounds, team))
	events := buildEvents(serie, matches)

	logrus.WithFields(logrus.Fields{
		"component": "CalendarService",
		"serie":     serie,
		"team":      team,
		"events":    len(events),
	}).Info("Calendar generated")

	return renderCalendar(serie, team, events), nil
}

// fetchSeason pulls the full season snapshot from the scoreboard API.
func (s *CalendarService) fetchSeason(ctx context.Context, serie string) (*models.Championship, error) {
	url := strings.Replace(s.configuration.APIURLTemplate, serieToken, serie, 1)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building season request: %w", err)
	}
	shared.SetBrowserLikeHeaders(request, "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return nil, shared.NewUpstreamError(url, 0, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewUpstreamError(url, response.StatusCode, nil)
	}

	var championship models.Championship
	if err := json.NewDecoder(response.Body).Decode(&championship); err != nil {
		return nil, fmt.Errorf("decoding season payload from %s: %w", url, err)
	}

	return &championship, nil
}

// teamMatches flattens all rounds into one match list, stamping each match
// with its round number and keeping only the given team's fixtures.
func teamMatches(rounds []models.Round, team string) []models.Match {
	matches := make([]models.Match, 0)

	for _, round := range rounds {
		for _, match := range round.Matches {
			if !isTeamPlaying(team, match) {
				continue
			}
			match.Round = round.Round
			matches = append(matches, match)
		}
	}

	return matches
}

// isTeamPlaying matches the team as a case-insensitive literal prefix of
// either side's name, so "Flamengo" covers "Flamengo" and "Flamengo sub-20"
// alike. The team string is never compiled as a pattern.
func isTeamPlaying(team string, match models.Match) bool {
	return hasTeamPrefix(match.Home.Name, team) || hasTeamPrefix(match.Guest.Name, team)
}

func hasTeamPrefix(name, team string) bool {
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(team))
}

// withKnownKickoff drops matches whose kickoff sits exactly at midnight:
// those are date-only placeholders and would mislead calendar subscribers.
func withKnownKickoff(matches []models.Match) []models.Match {
	kept := make([]models.Match, 0, len(matches))
	for _, match := range matches {
		if match.HasKickoffTime() {
			kept = append(kept, match)
		}
	}

	return kept
}

// buildEvents maps filtered matches to calendar events.
func buildEvents(serie string, matches []models.Match) []models.CalendarEvent {
	stamp := time.Now().UTC().Format(icalStampLayout)

	events := make([]models.CalendarEvent, 0, len(matches))
	for _, match := range matches {
		events = append(events, models.CalendarEvent{
			UID:         eventUID(match),
			Stamp:       stamp,
			Summary:     fmt.Sprintf("%s vs %s", match.Home.Name, match.Guest.Name),
			Description: eventDescription(serie, match),
			Start:       match.Datetime.Format(icalTimeLayout),
			End:         match.Datetime.Add(matchDuration).Format(icalTimeLayout),
			Location:    match.Stadium,
		})
	}

	return events
}

// eventUID hashes the two team names, home side first. Repeated generations
// of the same fixture keep the same UID; the reverse fixture gets another.
func eventUID(match models.Match) string {
	sum := md5.Sum([]byte(match.Home.Name + match.Guest.Name))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func eventDescription(serie string, match models.Match) string {
	return fmt.Sprintf("Campeonato Brasileiro Série: %s\nRodada: %d\nJogo: %s vs %s\nEstádio: %s",
		strings.ToUpper(serie), match.Round, match.Home.Name, match.Guest.Name, match.Stadium)
}

// renderCalendar writes the VCALENDAR document: named calendar header, the
// fixed America/Sao_Paulo timezone block, one VEVENT per match with a
// 15-minute display alarm.
func renderCalendar(serie, team string, events []models.CalendarEvent) string {
	title := fmt.Sprintf("Calendário Brasileirao %s - Jogos %s", strings.ToUpper(serie), team)

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString(fmt.Sprintf("NAME:%s\r\n", title))
	ics.WriteString(fmt.Sprintf("X-WR-CALNAME;VALUE=TEXT:%s\r\n", title))
	ics.WriteString(fmt.Sprintf("X-WR-CALDESC:%s\r\n", title))
	ics.WriteString(fmt.Sprintf("X-GOOGLE-CALENDAR-CONTENT-TITLE:%s\r\n", title))
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString(saoPauloTimezoneBlock)

	for _, event := range events {
		ics.WriteString("BEGIN:VEVENT\r\n")
		ics.WriteString(fmt.Sprintf("UID:%s\r\n", event.UID))
		ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", event.Stamp))
		ics.WriteString(fmt.Sprintf("DTSTART;TZID=\"America/Sao_Paulo\":%s\r\n", event.Start))
		ics.WriteString(fmt.Sprintf("DTEND;TZID=\"America/Sao_Paulo\":%s\r\n", event.End))
		ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeText(event.Summary)))
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeText(event.Description)))
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeText(event.Location)))
		ics.WriteString("BEGIN:VALARM\r\n")
		ics.WriteString("ACTION:DISPLAY\r\n")
		ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeText(event.Description)))
		ics.WriteString("TRIGGER:-PT15M\r\n")
		ics.WriteString("END:VALARM\r\n")
		ics.WriteString("END:VEVENT\r\n")
	}

	ics.WriteString("\r\n")
	ics.WriteString("END:VCALENDAR")

	return ics.String()
}

// saoPauloTimezoneBlock hardcodes the league's published DST rule: clocks go
// to -02:00 on the 3rd Sunday of October and back to -03:00 on the 3rd
// Sunday of February. Deliberately not derived from the IANA database.
const saoPauloTimezoneBlock = "BEGIN:VTIMEZONE\r\n" +
	"REFRESH-INTERVAL;VALUE=DURATION:PT12H\r\n" +
	"X-PUBLISHED-TTL:PT12H\r\n" +
	"TZID:America/Sao_Paulo\r\n" +
	"TZURL:http://tzurl.org/zoneinfo-outlook/America/Sao_Paulo\r\n" +
	"X-LIC-LOCATION:America/Sao_Paulo\r\n" +
	"BEGIN:DAYLIGHT\r\n" +
	"TZOFFSETFROM:-0300\r\n" +
	"TZOFFSETTO:-0200\r\n" +
	"TZNAME:BRST\r\n" +
	"DTSTART:19701018T000000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=3SU\r\n" +
	"END:DAYLIGHT\r\n" +
	"BEGIN:STANDARD\r\n" +
	"TZOFFSETFROM:-0300\r\n" +
	"TZOFFSETTO:-0300\r\n" +
	"TZNAME:BRT\r\n" +
	"DTSTART:19700215T000000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=2;BYDAY=3SU\r\n" +
	"END:STANDARD\r\n" +
	"END:VTIMEZONE\r\n"

// escapeText escapes text values according to RFC 5545.
func escapeText(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, ",", "\\,")
	value = strings.ReplaceAll(value, ";", "\\;")
	value = strings.ReplaceAll(value, "\n", "\\n")
	return value
}

// CalendarFilename derives the download filename for a serie/team calendar.
func CalendarFilename(serie, team string) string {
	slug := strings.ToLower(strings.ReplaceAll(team, " ", "-"))
	return "campeonato-brasileiro-" + strings.ToLower(serie) + "-jogos-" + slug + ".ical"
}
