// server/internal/notify/notifier.go
//
// Notifier là collaborator thông báo của hệ thống. Mọi lời gọi đều
// fire-and-forget: gửi hỏng chỉ được log, không bao giờ làm hỏng hay
// rollback một state transition đã commit.
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"freight-marketplace-api-server/internal/socket"
)

type Notifier interface {
	Notify(userID, event string, data map[string]interface{})
}

// HubNotifier đẩy thông báo realtime qua WebSocket hub.
type HubNotifier struct {
	Hub *socket.Hub
}

func NewHubNotifier(hub *socket.Hub) *HubNotifier {
	return &HubNotifier{Hub: hub}
}

func (n *HubNotifier) Notify(userID, event string, data map[string]interface{}) {
	payload := map[string]interface{}{"event": event}
	for k, v := range data {
		payload[k] = v
	}
	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal notification %s for %s: %v", event, userID, err)
		return
	}
	if err := n.Hub.Send(userID, message); err != nil {
		log.Printf("Failed to push notification %s to %s: %v", event, userID, err)
	}
}

// WebhookNotifier bắn sự kiện sang một webhook bên ngoài (email worker,
// automation...). URL rỗng thì notifier im lặng bỏ qua.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(userID, event string, data map[string]interface{}) {
	if n.URL == "" {
		return
	}
	payload := map[string]interface{}{"userID": userID, "event": event}
	for k, v := range data {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal webhook payload %s: %v", event, err)
		return
	}

	// Gửi nền để không chặn request path.
	go func() {
		resp, err := n.Client.Post(n.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("Failed to deliver webhook %s for %s: %v", event, userID, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("Webhook %s for %s returned status %d", event, userID, resp.StatusCode)
		}
	}()
}

// Multi gửi cùng một thông báo qua nhiều kênh.
type Multi []Notifier

func (m Multi) Notify(userID, event string, data map[string]interface{}) {
	for _, n := range m {
		n.Notify(userID, event, data)
	}
}

// Noop dùng trong test và khi chưa cấu hình kênh thông báo nào.
type Noop struct{}

func (Noop) Notify(userID, event string, data map[string]interface{}) {}
