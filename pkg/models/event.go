package models

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the category of a recorded match event.
type EventType string

const (
	EventTypeScrum    EventType = "scrum"
	EventTypeLineout  EventType = "lineout"
	EventTypeTurnover EventType = "turnover"
	EventTypePenalty  EventType = "penalty"
	EventTypeCard     EventType = "card"
	EventTypeKnockOn  EventType = "knockOn"
	EventTypeScore    EventType = "score"
)

// Plain action tokens.
const (
	ActionWon      = "won"
	ActionLost     = "lost"
	ActionConceded = "conceded"
	ActionFor      = "for"
	ActionAgainst  = "against"
)

// CardColor is the qualifier of a card action.
type CardColor string

const (
	CardYellow CardColor = "yellow"
	CardRed    CardColor = "red"
)

// ScoreType is the qualifier of a score action.
type ScoreType string

const (
	ScoreTry        ScoreType = "try"
	ScoreConversion ScoreType = "conversion"
	ScorePenalty    ScoreType = "penalty"
)

// MatchEvent is one entry of the append-only match log.
type MatchEvent struct {
	Type      EventType `json:"type"`
	Action    string    `json:"action"`
	Time      int       `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// CardAction encodes a card action as "<team>-<color>".
func CardAction(team Team, color CardColor) string {
	return string(team) + "-" + string(color)
}

// ScoreAction encodes a score action as "<team>-<scoreType>".
func ScoreAction(team Team, scoreType ScoreType) string {
	return string(team) + "-" + string(scoreType)
}

// SplitTeamAction splits a composite "<team>-<qualifier>" action. ok is false
// when the team part is not home/away or the qualifier is missing.
func SplitTeamAction(action string) (team Team, qualifier string, ok bool) {
	head, tail, found := strings.Cut(action, "-")
	if !found || tail == "" {
		return "", "", false
	}
	team = Team(head)
	if !team.Valid() {
		return "", "", false
	}
	return team, tail, true
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// DescribeEvent renders a human readable timeline title.
func DescribeEvent(ev MatchEvent) string {
	switch ev.Type {
	case EventTypeScrum:
		return "Scrum " + ev.Action
	case EventTypeLineout:
		return "Lineout " + ev.Action
	case EventTypeTurnover:
		return "Turnover " + ev.Action
	case EventTypePenalty:
		return "Penalty " + ev.Action
	case EventTypeCard:
		if team, color, ok := SplitTeamAction(ev.Action); ok {
			return capitalize(color) + " card - " + string(team)
		}
	case EventTypeKnockOn:
		return "Knock on - " + ev.Action
	}
	return string(ev.Type) + " - " + ev.Action
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
