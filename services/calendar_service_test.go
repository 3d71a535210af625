package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/krolow/brasileirao-backend/models"
	"github.com/krolow/brasileirao-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureMatch(home, guest, stadium string, kickoff time.Time) models.Match {
	return models.Match{
		Home:     models.TeamScore{Name: home},
		Guest:    models.TeamScore{Name: guest},
		Stadium:  stadium,
		Datetime: kickoff,
	}
}

func fixtureSeason() models.Championship {
	evening := time.Date(2016, 5, 14, 19, 0, 0, 0, time.UTC)

	return models.Championship{
		Serie: "a",
		Round: models.RoundPointer{Current: 2, Last: 2},
		Rounds: []models.Round{
			{Round: 1, Matches: []models.Match{
				fixtureMatch("River Plate", "Boca", "Monumental", evening),
				fixtureMatch("Boca", "San Lorenzo", "La Bombonera", evening),
			}},
			{Round: 2, Matches: []models.Match{
				fixtureMatch("Boca", "River Plate", "La Bombonera", evening.AddDate(0, 0, 7)),
				// Date-only placeholder: excluded from calendars.
				fixtureMatch("River Plate", "San Lorenzo", "Monumental",
					time.Date(2016, 5, 28, 0, 0, 0, 0, time.UTC)),
			}},
		},
	}
}

func newCalendarService(t *testing.T, season models.Championship) *CalendarService {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a", r.URL.Query().Get("serie"))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(season))
	}))
	t.Cleanup(server.Close)

	configuration := &CalendarConfiguration{
		APIURLTemplate: server.URL + "/brasileirao?serie=%serie%",
		RequestTimeout: 5 * time.Second,
	}

	return NewCalendarService(configuration, shared.NewHTTPClientFactory(5*time.Second))
}

func TestTeamMatchesPrefixFilter(t *testing.T) {
	season := fixtureSeason()

	matches := teamMatches(season.Rounds, "River")

	require.Len(t, matches, 3)
	assert.Equal(t, "River Plate", matches[0].Home.Name)
	assert.Equal(t, 1, matches[0].Round, "matches are stamped with their round number")
	assert.Equal(t, "River Plate", matches[1].Guest.Name, "guest side matches too")
	assert.Equal(t, 2, matches[1].Round)
}

func TestTeamMatchesIsCaseInsensitive(t *testing.T) {
	season := fixtureSeason()

	assert.Len(t, teamMatches(season.Rounds, "river"), 3)
	assert.Len(t, teamMatches(season.Rounds, "RIVER"), 3)
}

func TestTeamMatchesExcludesOtherTeams(t *testing.T) {
	season := fixtureSeason()

	for _, match := range teamMatches(season.Rounds, "San Lorenzo") {
		assert.True(t, strings.HasPrefix(match.Home.Name, "San Lorenzo") ||
			strings.HasPrefix(match.Guest.Name, "San Lorenzo"))
	}
	assert.Empty(t, teamMatches(season.Rounds, "Racing"))
}

func TestTeamMatchesTreatsInputLiterally(t *testing.T) {
	rounds := []models.Round{{Round: 1, Matches: []models.Match{
		fixtureMatch("River Plate", "Boca", "", time.Now()),
	}}}

	// Pattern metacharacters must not widen the match.
	assert.Empty(t, teamMatches(rounds, ".*"))
	assert.Empty(t, teamMatches(rounds, "R.ver"))
}

func TestWithKnownKickoffDropsMidnightMatches(t *testing.T) {
	season := fixtureSeason()

	kept := withKnownKickoff(teamMatches(season.Rounds, "River"))

	require.Len(t, kept, 2)
	for _, match := range kept {
		assert.NotZero(t, match.Datetime.UTC().Hour())
	}
}

func TestEventUIDIsDeterministicAndOrderSensitive(t *testing.T) {
	home := fixtureMatch("River Plate", "Boca", "", time.Now())
	away := fixtureMatch("Boca", "River Plate", "", time.Now())

	assert.Equal(t, eventUID(home), eventUID(home), "same fixture, same id")
	assert.NotEqual(t, eventUID(home), eventUID(away), "swapping sides changes the id")
}

func TestBuildEvents(t *testing.T) {
	match := fixtureMatch("River Plate", "Boca", "Monumental",
		time.Date(2016, 5, 14, 19, 0, 0, 0, time.UTC))
	match.Round = 4

	events := buildEvents("a", []models.Match{match})

	require.Len(t, events, 1)
	event := events[0]

	assert.Equal(t, "River Plate vs Boca", event.Summary)
	assert.Equal(t, "20160514T190000", event.Start)
	assert.Equal(t, "20160514T205000", event.End, "events last 110 minutes")
	assert.Equal(t, "Monumental", event.Location)
	assert.Contains(t, event.Description, "Série: A")
	assert.Contains(t, event.Description, "Rodada: 4")
}

func TestGenerateCalendarOutput(t *testing.T) {
	service := newCalendarService(t, fixtureSeason())

	calendar, err := service.GenerateCalendar(context.Background(), "a", "River")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(calendar, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(calendar, "END:VCALENDAR"))
	assert.Contains(t, calendar, "NAME:Calendário Brasileirao A - Jogos River\r\n")
	assert.Contains(t, calendar, saoPauloTimezoneBlock,
		"the fixed timezone block appears verbatim in every calendar")
	assert.Contains(t, calendar, "TRIGGER:-PT15M\r\n")

	assert.Equal(t, 2, strings.Count(calendar, "BEGIN:VEVENT\r\n"),
		"midnight placeholder matches are excluded")
	assert.Contains(t, calendar, "SUMMARY:River Plate vs Boca\r\n")
	assert.Contains(t, calendar, "SUMMARY:Boca vs River Plate\r\n")
	assert.NotContains(t, calendar, "River Plate vs San Lorenzo")

	assert.Contains(t, calendar, "DTSTART;TZID=\"America/Sao_Paulo\":20160514T190000\r\n")
	assert.Contains(t, calendar, "DTEND;TZID=\"America/Sao_Paulo\":20160514T205000\r\n")
}

func TestGenerateCalendarEscapesTextFields(t *testing.T) {
	season := models.Championship{Rounds: []models.Round{{Round: 1, Matches: []models.Match{
		fixtureMatch("River Plate", "Boca", "Arena, Fonte Nova",
			time.Date(2016, 5, 14, 19, 0, 0, 0, time.UTC)),
	}}}}
	service := newCalendarService(t, season)

	calendar, err := service.GenerateCalendar(context.Background(), "a", "River")
	require.NoError(t, err)

	assert.Contains(t, calendar, "LOCATION:Arena\\, Fonte Nova\r\n")
	assert.Contains(t, calendar, "Jogo: River Plate vs Boca\\nEstádio:")
}

func TestGenerateCalendarPropagatesUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	configuration := &CalendarConfiguration{
		APIURLTemplate: server.URL + "/brasileirao?serie=%serie%",
		RequestTimeout: 5 * time.Second,
	}
	service := NewCalendarService(configuration, shared.NewHTTPClientFactory(5*time.Second))

	_, err := service.GenerateCalendar(context.Background(), "a", "River")

	require.Error(t, err)
	status, ok := shared.UpstreamStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestCalendarFilename(t *testing.T) {
	assert.Equal(t, "campeonato-brasileiro-a-jogos-river-plate.ical",
		CalendarFilename("a", "River Plate"))
	assert.Equal(t, "campeonato-brasileiro-b-jogos-boca.ical",
		CalendarFilename("B", "Boca"))
}
