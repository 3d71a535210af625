package models

import (
	"strings"
	"time"
)

// TeamScore holds one side of a fixture as it appears on the score widget.
// Score is kept textual: upcoming matches render it as an empty string and
// postponed ones occasionally carry non-numeric markers.
type TeamScore struct {
	Name   string `json:"name"`
	Shield string `json:"shield"`
	Score  string `json:"score"`
}

// Match is a single fixture scraped from a round page. Round is stamped by
// the pipeline (or the calendar flattener), not by the extractor.
//
// Datetime is either a full kickoff timestamp or a date-only midnight UTC
// placeholder when the source page does not publish a kickoff time yet.
type Match struct {
	Home     TeamScore `json:"home"`
	Guest    TeamScore `json:"guest"`
	Stadium  string    `json:"stadium"`
	Datetime time.Time `json:"datetime"`
	URL      string    `json:"url"`
	Round    int       `json:"round,omitempty"`
}

// HasKickoffTime reports whether the match carries a real kickoff time,
// as opposed to the midnight date-only placeholder.
func (m Match) HasKickoffTime() bool {
	return m.Datetime.UTC().Hour() != 0
}

// Round is an ordered set of matches played in the same championship round.
type Round struct {
	Round   int     `json:"round"`
	Matches []Match `json:"matches"`
}

// RoundPointer locates the championship progress on the landing page:
// the round currently being played and the total number of rounds.
type RoundPointer struct {
	Current int `json:"current"`
	Last    int `json:"last"`
}

// Championship is the full normalized season for one serie. Rounds are
// sorted ascending by round number and cover 1..Round.Last with no gaps
// once the scraping pipeline completes.
type Championship struct {
	Serie  string       `json:"serie"`
	URL    string       `json:"url"`
	Widget string       `json:"widget"`
	Round  RoundPointer `json:"round"`
	Rounds []Round      `json:"rounds"`
}

// ValidSeries are the two national divisions served by this backend.
var ValidSeries = []string{"a", "b"}

// IsValidSerie reports whether serie names one of the two divisions.
// Matching is case-insensitive ("A" and "a" are the same serie).
func IsValidSerie(serie string) bool {
	for _, valid := range ValidSeries {
		if strings.EqualFold(serie, valid) {
			return true
		}
	}
	return false
}
