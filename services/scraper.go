package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"github.com/krolow/brasileirao-backend/models"
	"github.com/krolow/brasileirao-backend/shared"
	"github.com/sirupsen/logrus"
)

// URL template tokens, replaced at request-build time.
const (
	serieToken  = "%serie%"
	widgetToken = "%widget%"
	roundToken  = "%round%"

	roundContextKey = "round"
)

// ScraperConfiguration holds configuration parameters for the championship scraper
type ScraperConfiguration struct {
	LandingURLTemplate string // Serie landing page, carries a %serie% token
	RoundURLTemplate   string // Per-round match list, carries %widget% and %round% tokens
	Parallelism        int    // Maximum concurrent round fetches
}

// NewDefaultScraperConfiguration returns production-ready default configuration
func NewDefaultScraperConfiguration() *ScraperConfiguration {
	return &ScraperConfiguration{
		LandingURLTemplate: "http://globoesporte.globo.com/futebol/brasileirao-serie-%serie%/",
		RoundURLTemplate:   "http://globoesporte.globo.com%widget%%round%/jogos.html",
		Parallelism:        2,
	}
}

// ChampionshipScrapingService turns one serie landing page into a complete
// normalized Championship: it seeds from the landing page (which embeds the
// current round), fans out one fetch per remaining round with bounded
// parallelism, and merges everything sorted by round number.
//
// Every fetch failure aborts the whole pipeline; no partial championships are
// produced and nothing is retried.
type ChampionshipScrapingService struct {
	configuration *ScraperConfiguration
	extractor     *MatchExtractor
}

// NewChampionshipScrapingService creates a new scraping service. A nil
// configuration selects the production defaults.
func NewChampionshipScrapingService(configuration *ScraperConfiguration) *ChampionshipScrapingService {
	if configuration == nil {
		configuration = NewDefaultScraperConfiguration()
	}

	return &ChampionshipScrapingService{
		configuration: configuration,
		extractor:     NewMatchExtractor(),
	}
}

// FetchChampionship scrapes the full season for one serie.
func (s *ChampionshipScrapingService) FetchChampionship(ctx context.Context, serie string) (*models.Championship, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "ChampionshipScrapingService",
		"serie":     serie,
		"job_id":    uuid.New().String(),
	})
	startedAt := time.Now()

	landingURL := strings.Replace(s.configuration.LandingURLTemplate, serieToken, serie, 1)

	document, err := s.fetchDocument(landingURL)
	if err != nil {
		log.WithError(err).Error("Landing page fetch failed")
		return nil, err
	}

	pointer, err := s.extractor.ExtractRoundPointer(document)
	if err != nil {
		return nil, fmt.Errorf("parsing serie %s landing page: %w", serie, err)
	}

	widget, err := s.extractor.ExtractWidgetTemplate(document)
	if err != nil {
		return nil, fmt.Errorf("parsing serie %s landing page: %w", serie, err)
	}

	// The landing page embeds the current round, so it never needs its own
	// round fetch.
	championship := &models.Championship{
		Serie:  serie,
		URL:    landingURL,
		Widget: widget,
		Round:  pointer,
		Rounds: []models.Round{
			{Round: pointer.Current, Matches: s.extractor.ExtractMatches(document)},
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fetched, err := s.fetchRounds(widget, pointer, log)
	if err != nil {
		log.WithError(err).Error("Round fan-out failed")
		return nil, err
	}

	championship.Rounds = mergeRounds(championship.Rounds, fetched)

	log.WithFields(logrus.Fields{
		"rounds":   len(championship.Rounds),
		"duration": time.Since(startedAt),
	}).Info("Championship scrape completed")

	return championship, nil
}

// fetchDocument performs a single GET and parses the body. Non-200 statuses
// and transport failures come back as *shared.UpstreamError.
func (s *ChampionshipScrapingService) fetchDocument(url string) (*goquery.Document, error) {
	var document *goquery.Document
	var fetchErr error

	collector := s.newCollector(false)

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			fetchErr = shared.NewUpstreamError(r.Request.URL.String(), r.StatusCode, nil)
			return
		}

		parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = fmt.Errorf("parsing page %s: %w", r.Request.URL.String(), err)
			return
		}
		document = parsed
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = upstreamFromCollyError(r, err)
	})

	if err := collector.Visit(url); err != nil && fetchErr == nil {
		fetchErr = shared.NewUpstreamError(url, 0, err)
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if document == nil {
		return nil, shared.NewUpstreamError(url, 0, fmt.Errorf("no response received"))
	}

	return document, nil
}

// fetchRounds fans out one fetch per round number other than the current one,
// capped at the configured parallelism. The first failure decides the
// outcome; fetches already in flight are drained, not cancelled.
func (s *ChampionshipScrapingService) fetchRounds(widget string, pointer models.RoundPointer, log *logrus.Entry) ([]models.Round, error) {
	numbers := roundNumbersToFetch(pointer.Current, pointer.Last)
	rounds := make([]models.Round, 0, len(numbers))

	var mutex sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		mutex.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mutex.Unlock()
	}

	collector := s.newCollector(true)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: s.configuration.Parallelism}); err != nil {
		return nil, fmt.Errorf("configuring round fetch parallelism: %w", err)
	}

	collector.OnResponse(func(r *colly.Response) {
		number, _ := r.Ctx.GetAny(roundContextKey).(int)

		if r.StatusCode != http.StatusOK {
			recordErr(shared.NewUpstreamError(r.Request.URL.String(), r.StatusCode, nil))
			return
		}

		parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			recordErr(fmt.Errorf("parsing round %d page: %w", number, err))
			return
		}

		round := models.Round{Round: number, Matches: s.extractor.ExtractMatches(parsed)}

		mutex.Lock()
		rounds = append(rounds, round)
		mutex.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		recordErr(upstreamFromCollyError(r, err))
	})

	log.WithFields(logrus.Fields{
		"rounds":      len(numbers),
		"parallelism": s.configuration.Parallelism,
	}).Debug("Fanning out round fetches")

	for _, number := range numbers {
		requestCtx := colly.NewContext()
		requestCtx.Put(roundContextKey, number)

		url := s.roundURL(widget, number)
		if err := collector.Request(http.MethodGet, url, nil, requestCtx, nil); err != nil {
			recordErr(shared.NewUpstreamError(url, 0, err))
		}
	}

	collector.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return rounds, nil
}

// newCollector builds a collector for the score widget pages. Scraping
// fetches carry no client timeout; the widget endpoints have no published
// latency bound and the consumer timeout lives at the HTTP handler layer.
func (s *ChampionshipScrapingService) newCollector(async bool) *colly.Collector {
	options := []colly.CollectorOption{colly.IgnoreRobotsTxt()}
	if async {
		options = append(options, colly.Async(true))
	}

	return colly.NewCollector(options...)
}

func (s *ChampionshipScrapingService) roundURL(widget string, number int) string {
	replacer := strings.NewReplacer(widgetToken, widget, roundToken, strconv.Itoa(number))
	return replacer.Replace(s.configuration.RoundURLTemplate)
}

func upstreamFromCollyError(r *colly.Response, err error) error {
	url := ""
	status := 0
	if r != nil {
		status = r.StatusCode
		if r.Request != nil && r.Request.URL != nil {
			url = r.Request.URL.String()
		}
	}

	if status != 0 {
		return shared.NewUpstreamError(url, status, err)
	}
	return shared.NewUpstreamError(url, 0, err)
}

// roundNumbersToFetch lists every round in [1, last] except the current one.
func roundNumbersToFetch(current, last int) []int {
	numbers := make([]int, 0, last)
	for number := 1; number <= last; number++ {
		if number == current {
			continue
		}
		numbers = append(numbers, number)
	}

	return numbers
}

// mergeRounds joins the seeded current round with the fetched ones, sorted
// ascending by round number. Round numbers are unique within a championship,
// so the stable sort never has ties to break.
func mergeRounds(seed, fetched []models.Round) []models.Round {
	merged := make([]models.Round, 0, len(seed)+len(fetched))
	merged = append(merged, seed...)
	merged = append(merged, fetched...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Round < merged[j].Round
	})

	return merged
}
