package notification

import "context"

// Channel identifies a delivery transport
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
)

// Message is one outbound notification for a single recipient
type Message struct {
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Severity  string            `json:"severity"`
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	HTML      string            `json:"html,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	AlertID   int64             `json:"alert_id,omitempty"`
	AlertType string            `json:"alert_type,omitempty"`
}

// Notifier delivers messages over one transport
type Notifier interface {
	Notify(ctx context.Context, msg *Message) error
	Channel() Channel
}

// Severity colors used by chat transports
var SeverityColors = map[string]string{
	"critical": "#ff0000",
	"high":     "#ff8c00",
	"warning":  "#ffcc00",
	"medium":   "#ffcc00",
	"low":      "#36a64f",
}

// ColorFor returns the color of a severity, green when unknown
func ColorFor(severity string) string {
	if c, ok := SeverityColors[severity]; ok {
		return c
	}
	return "#36a64f"
}
