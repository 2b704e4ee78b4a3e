package business

import (
	"testing"

	"wtr-service/pkg/models"
)

func TestScorePoints(t *testing.T) {
	cases := map[models.ScoreType]int{
		models.ScoreTry:        5,
		models.ScoreConversion: 2,
		models.ScorePenalty:    3,
	}
	for scoreType, expected := range cases {
		points, ok := ScorePoints(scoreType)
		if !ok || points != expected {
			t.Errorf("ScorePoints(%q) = (%d, %v), expected (%d, true)", scoreType, points, ok, expected)
		}
	}
	if _, ok := ScorePoints("drop-goal"); ok {
		t.Error("Expected unknown score type to be rejected")
	}
}

func TestApplyEvent(t *testing.T) {
	cases := []struct {
		name     string
		typ      models.EventType
		action   string
		expected models.MatchStats
	}{
		{"scrum won", models.EventTypeScrum, models.ActionWon, models.MatchStats{Scrums: models.SetPieceStats{Won: 1}}},
		{"scrum lost", models.EventTypeScrum, models.ActionLost, models.MatchStats{Scrums: models.SetPieceStats{Lost: 1}}},
		{"lineout won", models.EventTypeLineout, models.ActionWon, models.MatchStats{Lineouts: models.SetPieceStats{Won: 1}}},
		{"lineout lost", models.EventTypeLineout, models.ActionLost, models.MatchStats{Lineouts: models.SetPieceStats{Lost: 1}}},
		{"turnover won", models.EventTypeTurnover, models.ActionWon, models.MatchStats{Turnovers: models.TurnoverStats{Won: 1}}},
		{"turnover conceded", models.EventTypeTurnover, models.ActionConceded, models.MatchStats{Turnovers: models.TurnoverStats{Conceded: 1}}},
		{"penalty for", models.EventTypePenalty, models.ActionFor, models.MatchStats{Penalties: models.PenaltyStats{For: 1}}},
		{"penalty against", models.EventTypePenalty, models.ActionAgainst, models.MatchStats{Penalties: models.PenaltyStats{Against: 1}}},
		{"home yellow", models.EventTypeCard, "home-yellow", models.MatchStats{Cards: models.CardStats{Home: models.TeamCardStats{Yellow: 1}}}},
		{"away red", models.EventTypeCard, "away-red", models.MatchStats{Cards: models.CardStats{Away: models.TeamCardStats{Red: 1}}}},
		{"knock on home", models.EventTypeKnockOn, "home", models.MatchStats{KnockOns: models.KnockOnStats{Home: 1}}},
		{"knock on away", models.EventTypeKnockOn, "away", models.MatchStats{KnockOns: models.KnockOnStats{Away: 1}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ApplyEvent(models.MatchStats{}, c.typ, c.action)
			if !ok {
				t.Fatalf("Expected %s/%s to be recognized", c.typ, c.action)
			}
			if got != c.expected {
				t.Errorf("Expected %+v, got %+v", c.expected, got)
			}
		})
	}
}

func TestApplyEventUnrecognizedLeavesStats(t *testing.T) {
	start := models.MatchStats{Scrums: models.SetPieceStats{Won: 2}}
	cases := []struct {
		typ    models.EventType
		action string
	}{
		{models.EventTypeScrum, "reset"},
		{models.EventTypeTurnover, models.ActionLost},
		{models.EventTypeCard, "home-green"},
		{models.EventTypeCard, "yellow"},
		{models.EventTypeKnockOn, "referee"},
		{models.EventTypeScore, "home-try"},
		{"maul", models.ActionWon},
	}
	for _, c := range cases {
		got, ok := ApplyEvent(start, c.typ, c.action)
		if ok {
			t.Errorf("Expected %s/%s to be unrecognized", c.typ, c.action)
		}
		if got != start {
			t.Errorf("Expected stats unchanged for %s/%s, got %+v", c.typ, c.action, got)
		}
	}
}

func TestApplyEventDoesNotMutateInput(t *testing.T) {
	start := models.MatchStats{}
	next, _ := ApplyEvent(start, models.EventTypeCard, "home-yellow")
	if start.Cards.Home.Yellow != 0 {
		t.Error("Expected input stats to be left untouched")
	}
	if next.Cards.Home.Yellow != 1 {
		t.Errorf("Expected 1 home yellow, got %d", next.Cards.Home.Yellow)
	}
}
