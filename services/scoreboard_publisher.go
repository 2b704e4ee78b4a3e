package services

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wtr-service/logger"
	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

const (
	// MQTT Quality of Service levels
	QoSAtLeastOnce = 1

	scoreboardPublishTimeout = 2 * time.Second
)

// Scoreboard is the retained payload published for a match.
type Scoreboard struct {
	MatchID     string            `json:"matchId"`
	Status      string            `json:"status"`
	HomeTeam    string            `json:"homeTeam"`
	AwayTeam    string            `json:"awayTeam"`
	HomeScore   int               `json:"homeScore"`
	AwayScore   int               `json:"awayScore"`
	Clock       string            `json:"clock"`
	LastEvent   string            `json:"lastEvent,omitempty"`
	Stats       models.MatchStats `json:"stats"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// ScoreboardPublisher mirrors the active match to an MQTT broker as a
// retained message per match, so pitch-side displays show the latest score
// as soon as they subscribe.
type ScoreboardPublisher struct {
	broker      string
	username    string
	password    string
	topicPrefix string
	client      mqtt.Client
}

// NewScoreboardPublisher creates a publisher for broker.
func NewScoreboardPublisher(broker, username, password, topicPrefix string) *ScoreboardPublisher {
	return &ScoreboardPublisher{
		broker:      broker,
		username:    username,
		password:    password,
		topicPrefix: topicPrefix,
	}
}

// Connect establishes the broker connection. Paho keeps reconnecting after that.
func (p *ScoreboardPublisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	if p.username != "" {
		opts.SetUsername(p.username)
		opts.SetPassword(p.password)
	}
	opts.SetClientID(fmt.Sprintf("wtr_scoreboard_%d", time.Now().Unix()))

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Printf("[MQTT] Connected to %s", p.broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Errorf("[MQTT] Connection lost: %v", err)
	})

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect: %w", token.Error())
	}
	return nil
}

// Disconnect closes the broker connection.
func (p *ScoreboardPublisher) Disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// Topic returns the scoreboard topic for matchID.
func (p *ScoreboardPublisher) Topic(matchID string) string {
	return p.topicPrefix + "/" + matchID
}

// MatchUpdated publishes the live scoreboard.
func (p *ScoreboardPublisher) MatchUpdated(match models.Match) {
	p.publish(BuildScoreboard(match, "live", match.ElapsedTime))
}

// MatchFinished publishes the final scoreboard.
func (p *ScoreboardPublisher) MatchFinished(match models.FinishedMatch) {
	p.publish(BuildScoreboard(match.Match, "finished", match.FinalTime))
}

func (p *ScoreboardPublisher) publish(board Scoreboard) {
	if err := p.Publish(board); err != nil {
		logger.Errorf("[MQTT] Failed to publish scoreboard for %s: %v", board.MatchID, err)
	}
}

// Publish sends board as a retained message.
func (p *ScoreboardPublisher) Publish(board Scoreboard) error {
	if p.client == nil || !p.client.IsConnected() {
		return common.ErrNotConnected
	}
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := p.client.Publish(p.Topic(board.MatchID), QoSAtLeastOnce, true, data)
	if !token.WaitTimeout(scoreboardPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", p.Topic(board.MatchID))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// BuildScoreboard projects match onto the display payload.
func BuildScoreboard(match models.Match, status string, clockSeconds int) Scoreboard {
	board := Scoreboard{
		MatchID:     match.ID,
		Status:      status,
		HomeTeam:    match.HomeTeam,
		AwayTeam:    match.AwayTeam,
		HomeScore:   match.HomeScore,
		AwayScore:   match.AwayScore,
		Clock:       models.FormatClock(clockSeconds),
		Stats:       match.Stats,
		PublishedAt: time.Now().UTC(),
	}
	if n := len(match.Events); n > 0 {
		board.LastEvent = models.DescribeEvent(match.Events[n-1])
	}
	return board
}
