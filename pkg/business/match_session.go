package business

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// MaxTeamNameLength caps team names, in characters.
const MaxTeamNameLength = 100

// MatchSession holds the single active match slot.
//
// The slot moves NoMatch -> Active on StartMatch and back to NoMatch on
// FinishMatch. Every mutation replaces the slot with a freshly built Match so
// snapshots handed out earlier never change underneath their readers.
//
// Listener notifications are queued in slot order under mu and delivered by
// one goroutine at a time, so listeners never see an older snapshot after a
// newer one and may call back into the session.
type MatchSession struct {
	mu        sync.Mutex
	current   *models.Match
	archiver  Archiver
	listeners []MatchListener
	logger    common.Logger

	outbox   []notification
	draining bool

	now   func() time.Time
	newID func() string
}

type notification struct {
	match    models.Match
	finished *models.FinishedMatch
}

// NewMatchSession creates an empty session that hands finished matches to archiver.
func NewMatchSession(logger common.Logger, archiver Archiver) *MatchSession {
	return &MatchSession{
		archiver: archiver,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// AddListener registers l for match updates.
func (s *MatchSession) AddListener(l MatchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Current returns the active match snapshot.
func (s *MatchSession) Current() (models.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.Match{}, false
	}
	return *s.current, true
}

// StartMatch activates a new match between home and away.
func (s *MatchSession) StartMatch(homeTeam, awayTeam string) (models.Match, error) {
	homeTeam = strings.TrimSpace(homeTeam)
	awayTeam = strings.TrimSpace(awayTeam)
	if homeTeam == "" || awayTeam == "" {
		return models.Match{}, fmt.Errorf("%w: both team names are required", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(homeTeam) > MaxTeamNameLength || utf8.RuneCountInString(awayTeam) > MaxTeamNameLength {
		return models.Match{}, fmt.Errorf("%w: team names are limited to %d characters", common.ErrInvalidInput, MaxTeamNameLength)
	}

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return models.Match{}, common.ErrMatchInProgress
	}
	match := models.Match{
		ID:       s.newID(),
		Date:     s.now(),
		HomeTeam: homeTeam,
		AwayTeam: awayTeam,
		Events:   []models.MatchEvent{},
	}
	s.current = &match
	drain := s.queueLocked(notification{match: match})
	s.mu.Unlock()

	s.logger.Info("Match %s started: %s vs %s", match.ID, homeTeam, awayTeam)
	if drain {
		s.deliver()
	}
	return match, nil
}

// SetElapsed records the match clock reported by the timer. It is ignored
// when no match is active.
func (s *MatchSession) SetElapsed(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	next := *s.current
	next.ElapsedTime = seconds
	s.current = &next
}

// RecordEvent logs an event at the current match clock.
func (s *MatchSession) RecordEvent(eventType models.EventType, action string) (models.Match, error) {
	return s.mutate(func(m models.Match) (models.Match, error) {
		return recordEvent(m, eventType, action, m.ElapsedTime, s.now()), nil
	})
}

// RecordEventAt logs an event at an explicit match time.
func (s *MatchSession) RecordEventAt(eventType models.EventType, action string, seconds int) (models.Match, error) {
	if seconds < 0 {
		return models.Match{}, fmt.Errorf("%w: event time must not be negative", common.ErrInvalidInput)
	}
	return s.mutate(func(m models.Match) (models.Match, error) {
		return recordEvent(m, eventType, action, seconds, s.now()), nil
	})
}

// AddScore awards scoreType to team at the current match clock.
func (s *MatchSession) AddScore(team models.Team, scoreType models.ScoreType) (models.Match, error) {
	return s.mutate(func(m models.Match) (models.Match, error) {
		return addScore(m, team, scoreType, m.ElapsedTime, s.now())
	})
}

// AddScoreAt awards scoreType to team at an explicit match time.
func (s *MatchSession) AddScoreAt(team models.Team, scoreType models.ScoreType, seconds int) (models.Match, error) {
	if seconds < 0 {
		return models.Match{}, fmt.Errorf("%w: event time must not be negative", common.ErrInvalidInput)
	}
	return s.mutate(func(m models.Match) (models.Match, error) {
		return addScore(m, team, scoreType, seconds, s.now())
	})
}

// FinishMatch stamps the active match and clears the slot before handing the
// snapshot to the archiver, so a persistence failure never leaves the match
// open. The returned error is ErrNoActiveMatch or nil.
func (s *MatchSession) FinishMatch(ctx context.Context) (models.FinishedMatch, ArchiveOutcome, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return models.FinishedMatch{}, "", common.ErrNoActiveMatch
	}
	finished := models.FinishedMatch{
		Match:      *s.current,
		FinalTime:  s.current.ElapsedTime,
		FinishedAt: s.now(),
	}
	s.current = nil
	drain := s.queueLocked(notification{finished: &finished})
	s.mu.Unlock()

	s.logger.Info("Match %s finished %d-%d at %s", finished.ID, finished.HomeScore, finished.AwayScore, models.FormatClock(finished.FinalTime))
	if drain {
		s.deliver()
	}

	outcome := ArchiveFailed
	if s.archiver != nil {
		outcome = s.archiver.Archive(ctx, finished)
	}
	return finished, outcome, nil
}

func (s *MatchSession) mutate(apply func(models.Match) (models.Match, error)) (models.Match, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return models.Match{}, common.ErrNoActiveMatch
	}
	next, err := apply(*s.current)
	if err != nil {
		s.mu.Unlock()
		return models.Match{}, err
	}
	s.current = &next
	drain := s.queueLocked(notification{match: next})
	s.mu.Unlock()

	if drain {
		s.deliver()
	}
	return next, nil
}

// queueLocked appends n to the outbox and reports whether the caller must
// deliver it. Callers hold mu.
func (s *MatchSession) queueLocked(n notification) bool {
	s.outbox = append(s.outbox, n)
	if s.draining {
		return false
	}
	s.draining = true
	return true
}

// deliver fans the outbox out until it is empty.
func (s *MatchSession) deliver() {
	for {
		s.mu.Lock()
		if len(s.outbox) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		batch := s.outbox
		s.outbox = nil
		listeners := s.listeners
		s.mu.Unlock()

		for _, n := range batch {
			for _, l := range listeners {
				if n.finished != nil {
					l.MatchFinished(*n.finished)
				} else {
					l.MatchUpdated(n.match)
				}
			}
		}
	}
}

func recordEvent(m models.Match, eventType models.EventType, action string, seconds int, at time.Time) models.Match {
	m.Events = appendEvent(m.Events, models.MatchEvent{
		Type:      eventType,
		Action:    action,
		Time:      seconds,
		Timestamp: at,
	})
	m.Stats, _ = ApplyEvent(m.Stats, eventType, action)
	return m
}

func addScore(m models.Match, team models.Team, scoreType models.ScoreType, seconds int, at time.Time) (models.Match, error) {
	points, ok := ScorePoints(scoreType)
	if !ok {
		return m, fmt.Errorf("%w: unknown score type %q", common.ErrInvalidInput, scoreType)
	}
	switch team {
	case models.TeamHome:
		m.HomeScore += points
	case models.TeamAway:
		m.AwayScore += points
	default:
		return m, fmt.Errorf("%w: unknown team %q", common.ErrInvalidInput, team)
	}
	m.Events = appendEvent(m.Events, models.MatchEvent{
		Type:      models.EventTypeScore,
		Action:    models.ScoreAction(team, scoreType),
		Time:      seconds,
		Timestamp: at,
	})
	return m, nil
}

// appendEvent caps the capacity before appending so the new log never shares
// a backing array with the previous snapshot.
func appendEvent(events []models.MatchEvent, ev models.MatchEvent) []models.MatchEvent {
	return append(events[:len(events):len(events)], ev)
}
