package business

import "wtr-service/pkg/models"

// scorePoints maps a score type to its point value.
var scorePoints = map[models.ScoreType]int{
	models.ScoreTry:        5,
	models.ScoreConversion: 2,
	models.ScorePenalty:    3,
}

// ScorePoints returns the points awarded for scoreType.
func ScorePoints(scoreType models.ScoreType) (int, bool) {
	points, ok := scorePoints[scoreType]
	return points, ok
}

// ApplyEvent returns stats with the counter selected by (eventType, action)
// incremented. Unrecognized combinations leave stats unchanged and report
// false; they are still valid log entries.
func ApplyEvent(stats models.MatchStats, eventType models.EventType, action string) (models.MatchStats, bool) {
	switch eventType {
	case models.EventTypeScrum:
		if next, ok := applySetPiece(stats.Scrums, action); ok {
			stats.Scrums = next
			return stats, true
		}
	case models.EventTypeLineout:
		if next, ok := applySetPiece(stats.Lineouts, action); ok {
			stats.Lineouts = next
			return stats, true
		}
	case models.EventTypeTurnover:
		switch action {
		case models.ActionWon:
			stats.Turnovers.Won++
			return stats, true
		case models.ActionConceded:
			stats.Turnovers.Conceded++
			return stats, true
		}
	case models.EventTypePenalty:
		switch action {
		case models.ActionFor:
			stats.Penalties.For++
			return stats, true
		case models.ActionAgainst:
			stats.Penalties.Against++
			return stats, true
		}
	case models.EventTypeCard:
		team, color, ok := models.SplitTeamAction(action)
		if !ok {
			break
		}
		cards := &stats.Cards.Home
		if team == models.TeamAway {
			cards = &stats.Cards.Away
		}
		switch models.CardColor(color) {
		case models.CardYellow:
			cards.Yellow++
			return stats, true
		case models.CardRed:
			cards.Red++
			return stats, true
		}
	case models.EventTypeKnockOn:
		switch models.Team(action) {
		case models.TeamHome:
			stats.KnockOns.Home++
			return stats, true
		case models.TeamAway:
			stats.KnockOns.Away++
			return stats, true
		}
	}
	return stats, false
}

func applySetPiece(counter models.SetPieceStats, action string) (models.SetPieceStats, bool) {
	switch action {
	case models.ActionWon:
		counter.Won++
	case models.ActionLost:
		counter.Lost++
	default:
		return counter, false
	}
	return counter, true
}
