package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"wtr-service/logger"
	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

// RoutingKeyMatchFinished is used for every uploaded match.
const RoutingKeyMatchFinished = "match.finished"

// ReconnectConfig controls redial backoff.
type ReconnectConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultReconnectConfig returns 1s doubling up to 60s.
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		InitialDelay:  1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
	}
}

// MatchFinishedMessage is the body published for an uploaded match.
type MatchFinishedMessage struct {
	RecordID   string            `json:"record_id"`
	OwnerID    string            `json:"owner_id"`
	MatchID    string            `json:"match_id"`
	HomeTeam   string            `json:"home_team"`
	AwayTeam   string            `json:"away_team"`
	HomeScore  int               `json:"home_score"`
	AwayScore  int               `json:"away_score"`
	FinalTime  int               `json:"final_time"`
	FinishedAt time.Time         `json:"finished_at"`
	Stats      models.MatchStats `json:"stats"`
}

// AMQPPublisher publishes uploaded matches to a topic exchange so downstream
// consumers (league tables, reports) can pick them up.
type AMQPPublisher struct {
	url       string
	exchange  string
	reconnect *ReconnectConfig

	mu          sync.Mutex
	conn        *amqp.Connection
	channel     *amqp.Channel
	nextAttempt time.Time
	delay       time.Duration
}

// NewAMQPPublisher creates a publisher. Nothing is dialed until the first publish.
func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	reconnect := DefaultReconnectConfig()
	return &AMQPPublisher{
		url:       url,
		exchange:  exchange,
		reconnect: reconnect,
		delay:     reconnect.InitialDelay,
	}
}

// MatchUploaded publishes a match.finished message. Failures are logged; the
// match itself is already stored remotely.
func (p *AMQPPublisher) MatchUploaded(ctx context.Context, recordID, ownerID string, match models.FinishedMatch) {
	body, err := json.Marshal(MatchFinishedMessage{
		RecordID:   recordID,
		OwnerID:    ownerID,
		MatchID:    match.ID,
		HomeTeam:   match.HomeTeam,
		AwayTeam:   match.AwayTeam,
		HomeScore:  match.HomeScore,
		AwayScore:  match.AwayScore,
		FinalTime:  match.FinalTime,
		FinishedAt: match.FinishedAt,
		Stats:      match.Stats,
	})
	if err != nil {
		logger.Errorf("[AMQP] Failed to marshal match %s: %v", match.ID, err)
		return
	}
	if err := p.Publish(RoutingKeyMatchFinished, body); err != nil {
		logger.Errorf("[AMQP] Failed to publish match %s: %v", match.ID, err)
		return
	}
	logger.Printf("[AMQP] Published %s for match %s", RoutingKeyMatchFinished, match.ID)
}

// Publish sends body with routingKey, dialing if needed.
func (p *AMQPPublisher) Publish(routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err := p.channel.Publish(
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.dropLocked()
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropLocked()
}

// ensureChannel must be called with mu held.
func (p *AMQPPublisher) ensureChannel() error {
	if p.channel != nil && p.conn != nil && !p.conn.IsClosed() {
		return nil
	}
	if time.Now().Before(p.nextAttempt) {
		return common.ErrNotConnected
	}

	logger.Printf("[AMQP] Connecting (exchange: %s)...", p.exchange)
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		p.backoffLocked()
		return fmt.Errorf("dial failed: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		p.backoffLocked()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		p.backoffLocked()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = channel
	p.delay = p.reconnect.InitialDelay
	p.nextAttempt = time.Time{}
	logger.Println("[AMQP] Connected")
	return nil
}

func (p *AMQPPublisher) backoffLocked() {
	p.nextAttempt = time.Now().Add(p.delay)
	next := time.Duration(float64(p.delay) * p.reconnect.BackoffFactor)
	if next > p.reconnect.MaxDelay {
		next = p.reconnect.MaxDelay
	}
	p.delay = next
}

func (p *AMQPPublisher) dropLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
