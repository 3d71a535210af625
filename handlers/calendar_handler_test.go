package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krolow/brasileirao-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalendarProvider struct {
	calls    int
	calendar string
	err      error
}

func (p *stubCalendarProvider) GenerateCalendar(_ context.Context, serie, team string) (string, error) {
	p.calls++

	if p.err != nil {
		return "", p.err
	}

	return p.calendar, nil
}

func newCalendarApp(provider CalendarProvider) *fiber.App {
	app := fiber.New()
	app.Get("/api/v1/calendar", NewCalendarHandler(provider).GetCalendar)
	return app
}

func TestGetCalendarRejectsInvalidParameters(t *testing.T) {
	cases := []string{
		"",
		"serie=a",
		"team=River",
		"serie=c&team=River",
		"serie=a&team=",
	}

	for _, query := range cases {
		provider := &stubCalendarProvider{}
		app := newCalendarApp(provider)

		request := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?"+query, nil)
		response, err := app.Test(request)
		require.NoError(t, err)

		assert.Equalf(t, http.StatusBadRequest, response.StatusCode, "query %q", query)
		assert.Zero(t, provider.calls)

		body, err := io.ReadAll(response.Body)
		require.NoError(t, err)
		assert.Equal(t, "You must pass query string: team and serie (a or b)", string(body))
	}
}

func TestGetCalendarRespondsWithFileDownload(t *testing.T) {
	provider := &stubCalendarProvider{calendar: "BEGIN:VCALENDAR\r\nEND:VCALENDAR"}
	app := newCalendarApp(provider)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?serie=A&team=River+Plate", nil)
	response, err := app.Test(request)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "application/force-download", response.Header.Get("Content-Type"))
	assert.Equal(t,
		"attachment; filename=campeonato-brasileiro-a-jogos-river-plate.ical",
		response.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, provider.calendar, string(body))
}

func TestGetCalendarEchoesUpstreamStatus(t *testing.T) {
	provider := &stubCalendarProvider{
		err: shared.NewUpstreamError("http://api", http.StatusGatewayTimeout, nil),
	}
	app := newCalendarApp(provider)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/calendar?serie=a&team=River", nil)
	response, err := app.Test(request)
	require.NoError(t, err)

	assert.Equal(t, http.StatusGatewayTimeout, response.StatusCode)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}
