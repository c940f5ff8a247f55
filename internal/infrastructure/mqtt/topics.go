package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "btmonitor"

// Topics provides builders for the monitor's MQTT topic hierarchy.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{Prefix: "btmonitor"}
//	topics.Event("device-updates")
//	// Returns: "btmonitor/event/device-updates"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Request returns the topic the backend listens on for a command.
//
// Example: btmonitor/request/trigger_scan
func (t Topics) Request(command string) string {
	return fmt.Sprintf("%s/request/%s", t.prefix(), command)
}

// Response returns the reply topic for one request issued by a client.
//
// Example: btmonitor/response/btmonitor-client/0b7c...
func (t Topics) Response(clientID, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", t.prefix(), clientID, requestID)
}

// AllResponses returns a pattern matching every reply addressed to a client.
//
// Pattern: btmonitor/response/{client_id}/+
func (t Topics) AllResponses(clientID string) string {
	return fmt.Sprintf("%s/response/%s/+", t.prefix(), clientID)
}

// Event returns the topic for a named backend push channel.
//
// Example: btmonitor/event/device-updates
func (t Topics) Event(channel string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix(), channel)
}

// ClientStatus returns the retained online/offline status topic for a client.
//
// Example: btmonitor/client/btmonitor-client/status
func (t Topics) ClientStatus(clientID string) string {
	return fmt.Sprintf("%s/client/%s/status", t.prefix(), clientID)
}
