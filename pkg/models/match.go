package models

import "time"

// Team identifies one side of the match.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// Valid reports whether t is home or away.
func (t Team) Valid() bool {
	return t == TeamHome || t == TeamAway
}

// SetPieceStats counts scrum or lineout outcomes.
type SetPieceStats struct {
	Won  int `json:"won"`
	Lost int `json:"lost"`
}

// TurnoverStats counts turnovers won and conceded.
type TurnoverStats struct {
	Won      int `json:"won"`
	Conceded int `json:"conceded"`
}

// PenaltyStats counts penalties awarded for and against.
type PenaltyStats struct {
	For     int `json:"for"`
	Against int `json:"against"`
}

// TeamCardStats counts cards shown to one team.
type TeamCardStats struct {
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

// CardStats holds per-team card counts.
type CardStats struct {
	Home TeamCardStats `json:"home"`
	Away TeamCardStats `json:"away"`
}

// KnockOnStats holds per-team knock-on counts.
type KnockOnStats struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// MatchStats is the nested counter block of a match. It is a plain value:
// copying it copies every counter.
type MatchStats struct {
	Scrums    SetPieceStats `json:"scrums"`
	Lineouts  SetPieceStats `json:"lineouts"`
	Turnovers TurnoverStats `json:"turnovers"`
	Penalties PenaltyStats  `json:"penalties"`
	Cards     CardStats     `json:"cards"`
	KnockOns  KnockOnStats  `json:"knockOns"`
}

// Match is a snapshot of the active match.
type Match struct {
	ID          string       `json:"id"`
	Date        time.Time    `json:"date"`
	HomeTeam    string       `json:"homeTeam"`
	AwayTeam    string       `json:"awayTeam"`
	HomeScore   int          `json:"homeScore"`
	AwayScore   int          `json:"awayScore"`
	Stats       MatchStats   `json:"stats"`
	Events      []MatchEvent `json:"events"`
	ElapsedTime int          `json:"elapsedTime"`
}

// FinishedMatch is a match snapshot stamped at full time.
type FinishedMatch struct {
	Match
	FinalTime  int       `json:"finalTime"`
	FinishedAt time.Time `json:"finishedAt"`
}

// PendingMatch is a finished match waiting in the local offline queue.
type PendingMatch struct {
	FinishedMatch
	TempID string `json:"tempId"`
}

// RemoteMatch is a finished match as held by the remote store.
type RemoteMatch struct {
	FinishedMatch
	RecordID  string    `json:"recordId"`
	OwnerID   string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LegacyMatch is the deprecated local history format. Older builds did not
// always stamp a temp id or the finish fields.
type LegacyMatch struct {
	TempID     string       `json:"tempId,omitempty"`
	ID         string       `json:"id"`
	Date       time.Time    `json:"date"`
	HomeTeam   string       `json:"homeTeam"`
	AwayTeam   string       `json:"awayTeam"`
	HomeScore  int          `json:"homeScore"`
	AwayScore  int          `json:"awayScore"`
	Stats      MatchStats   `json:"stats"`
	Events     []MatchEvent `json:"events,omitempty"`
	FinalTime  *int         `json:"finalTime,omitempty"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// Matches reports whether identifier names this record by temp id or id.
func (l LegacyMatch) Matches(identifier string) bool {
	if identifier == "" {
		return false
	}
	return l.TempID == identifier || l.ID == identifier
}

// ToFinished converts a legacy record into the current format. A missing
// finish instant falls back to the match date.
func (l LegacyMatch) ToFinished() FinishedMatch {
	finished := FinishedMatch{
		Match: Match{
			ID:        l.ID,
			Date:      l.Date,
			HomeTeam:  l.HomeTeam,
			AwayTeam:  l.AwayTeam,
			HomeScore: l.HomeScore,
			AwayScore: l.AwayScore,
			Stats:     l.Stats,
			Events:    append([]MatchEvent(nil), l.Events...),
		},
		FinishedAt: l.Date,
	}
	if l.FinalTime != nil {
		finished.FinalTime = *l.FinalTime
		finished.ElapsedTime = *l.FinalTime
	}
	if l.FinishedAt != nil {
		finished.FinishedAt = *l.FinishedAt
	}
	if finished.Events == nil {
		finished.Events = []MatchEvent{}
	}
	return finished
}
