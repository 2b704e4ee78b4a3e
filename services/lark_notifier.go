package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wtr-service/logger"
)

// LarkNotifier posts operator alerts to a Lark bot webhook.
type LarkNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
}

// NewLarkNotifier creates a notifier. An empty URL disables it.
func NewLarkNotifier(webhookURL string) *LarkNotifier {
	enabled := webhookURL != ""
	if enabled {
		logger.Printf("[LarkNotifier] Initialized with webhook")
	} else {
		logger.Printf("[LarkNotifier] Disabled (no webhook URL)")
	}

	return &LarkNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		enabled:    enabled,
	}
}

// LarkMessage is the webhook envelope.
type LarkMessage struct {
	MsgType string      `json:"msg_type"`
	Content interface{} `json:"content"`
}

// LarkTextContent is a plain text body.
type LarkTextContent struct {
	Text string `json:"text"`
}

// LarkPostContent is a rich text body.
type LarkPostContent struct {
	Post LarkPost `json:"post"`
}

type LarkPost struct {
	EnUs LarkPostLang `json:"en_us"`
}

type LarkPostLang struct {
	Title   string          `json:"title"`
	Content [][]LarkElement `json:"content"`
}

type LarkElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text,omitempty"`
	Href string `json:"href,omitempty"`
}

// SendText sends a plain text message.
func (n *LarkNotifier) SendText(text string) error {
	if !n.enabled {
		return nil
	}

	return n.send(LarkMessage{
		MsgType: "text",
		Content: LarkTextContent{Text: text},
	})
}

// SendRichText sends a titled rich text message.
func (n *LarkNotifier) SendRichText(title string, content [][]LarkElement) error {
	if !n.enabled {
		return nil
	}

	return n.send(LarkMessage{
		MsgType: "post",
		Content: LarkPostContent{
			Post: LarkPost{
				EnUs: LarkPostLang{
					Title:   title,
					Content: content,
				},
			},
		},
	})
}

func (n *LarkNotifier) send(message LarkMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// NotifyServiceStart announces a service start.
func (n *LarkNotifier) NotifyServiceStart(environment, remoteStore string) error {
	content := [][]LarkElement{
		{{Tag: "text", Text: "Service started\n"}},
		{{Tag: "text", Text: fmt.Sprintf("Environment: %s\n", environment)}},
		{{Tag: "text", Text: fmt.Sprintf("Remote store: %s\n", remoteStore)}},
		{{Tag: "text", Text: fmt.Sprintf("Time: %s", time.Now().Format("2006-01-02 15:04:05"))}},
	}

	return n.SendRichText("Match Recorder Started", content)
}

// NotifyServiceStop announces a shutdown and how many matches are still staged.
func (n *LarkNotifier) NotifyServiceStop(pending int) error {
	return n.SendText(fmt.Sprintf("Match recorder stopped, %d match(es) still pending upload", pending))
}

// NotifySyncSummary reports a reconciliation run that left items queued.
func (n *LarkNotifier) NotifySyncSummary(uploaded, failed, remaining int) error {
	content := [][]LarkElement{
		{{Tag: "text", Text: "Offline queue reconciliation\n"}},
		{{Tag: "text", Text: fmt.Sprintf("Uploaded: %d\n", uploaded)}},
		{{Tag: "text", Text: fmt.Sprintf("Failed: %d\n", failed)}},
		{{Tag: "text", Text: fmt.Sprintf("Still pending: %d\n", remaining)}},
		{{Tag: "text", Text: fmt.Sprintf("Time: %s", time.Now().Format("2006-01-02 15:04:05"))}},
	}

	return n.SendRichText("Sync Summary", content)
}

// NotifyError reports a failure in component.
func (n *LarkNotifier) NotifyError(component, message string) error {
	content := [][]LarkElement{
		{{Tag: "text", Text: "Error\n"}},
		{{Tag: "text", Text: fmt.Sprintf("Component: %s\n", component)}},
		{{Tag: "text", Text: fmt.Sprintf("Message: %s\n", message)}},
		{{Tag: "text", Text: fmt.Sprintf("Time: %s", time.Now().Format("2006-01-02 15:04:05"))}},
	}

	return n.SendRichText("Error Alert", content)
}
