package web

import (
	"fmt"
	"net/http"
	"strings"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

type startMatchRequest struct {
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
}

type clockRequest struct {
	Elapsed int `json:"elapsed"`
}

type recordEventRequest struct {
	Type   models.EventType `json:"type"`
	Action string           `json:"action"`
	Time   *int             `json:"time,omitempty"`
}

type addScoreRequest struct {
	Team      models.Team      `json:"team"`
	ScoreType models.ScoreType `json:"scoreType"`
	Time      *int             `json:"time,omitempty"`
}

// TimelineEntry is one rendered line of the match log.
type TimelineEntry struct {
	Clock       string           `json:"clock"`
	Description string           `json:"description"`
	Type        models.EventType `json:"type"`
	Action      string           `json:"action"`
	Time        int              `json:"time"`
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, ok := s.session.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false, "match": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": true, "match": match})
}

func (s *Server) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	var req startMatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	match, err := s.session.StartMatch(req.HomeTeam, req.AwayTeam)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (s *Server) handleSetClock(w http.ResponseWriter, r *http.Request) {
	var req clockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.session.SetElapsed(req.Elapsed)
	match, ok := s.session.Current()
	if !ok {
		writeError(w, common.ErrNoActiveMatch)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(string(req.Type)) == "" {
		writeError(w, fmt.Errorf("%w: event type is required", common.ErrInvalidInput))
		return
	}
	if req.Type == models.EventTypeScore {
		writeError(w, fmt.Errorf("%w: scores go through /api/match/score", common.ErrInvalidInput))
		return
	}

	var (
		match models.Match
		err   error
	)
	if req.Time != nil {
		match, err = s.session.RecordEventAt(req.Type, req.Action, *req.Time)
	} else {
		match, err = s.session.RecordEvent(req.Type, req.Action)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleAddScore(w http.ResponseWriter, r *http.Request) {
	var req addScoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		match models.Match
		err   error
	)
	if req.Time != nil {
		match, err = s.session.AddScoreAt(req.Team, req.ScoreType, *req.Time)
	} else {
		match, err = s.session.AddScore(req.Team, req.ScoreType)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleFinishMatch(w http.ResponseWriter, r *http.Request) {
	finished, outcome, err := s.session.FinishMatch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match":   finished,
		"outcome": outcome,
	})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	match, ok := s.session.Current()
	if !ok {
		writeError(w, common.ErrNoActiveMatch)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matchId": match.ID,
		"clock":   models.FormatClock(match.ElapsedTime),
		"events":  BuildTimeline(match.Events),
	})
}

// BuildTimeline renders events in log order.
func BuildTimeline(events []models.MatchEvent) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, TimelineEntry{
			Clock:       models.FormatClock(ev.Time),
			Description: models.DescribeEvent(ev),
			Type:        ev.Type,
			Action:      ev.Action,
			Time:        ev.Time,
		})
	}
	return entries
}
