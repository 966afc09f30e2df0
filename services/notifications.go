package services

import (
	"bytes"
	"classified-ads-server/models"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"gorm.io/gorm"
)

// Notifier tells a user about a new message. Best-effort: a failed
// notification is logged and forgotten, it never blocks the send.
type Notifier interface {
	NotifyNewMessage(receiverID uint, senderID uint, message *models.Message)
}

// NotificationService delivers new-message emails through the provider's
// HTTP API (EMAIL_API_URL / EMAIL_API_KEY / EMAIL_FROM).
type NotificationService struct {
	db     *gorm.DB
	client *http.Client
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:     db,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// NotifyNewMessage emails the receiver about a new message, respecting their
// notification opt-out. Called from a goroutine by the message service.
func (ns *NotificationService) NotifyNewMessage(receiverID uint, senderID uint, message *models.Message) {
	var receiver models.User
	if err := ns.db.First(&receiver, receiverID).Error; err != nil {
		log.Printf("notification: receiver %d not found: %v", receiverID, err)
		return
	}
	if receiver.AllowsNotifications == nil || !*receiver.AllowsNotifications {
		return
	}
	if receiver.Email == "" {
		return
	}

	senderName := "Someone"
	var sender models.User
	if err := ns.db.Select("id, first_name, last_name, email").First(&sender, senderID).Error; err == nil {
		senderName = sender.DisplayName()
	}

	subject := fmt.Sprintf("New message from %s", senderName)
	if message.IsSupport() {
		subject = fmt.Sprintf("Support reply in %s", message.SupportCategory)
	} else if message.ListingID != nil {
		var listing models.Listing
		if err := ns.db.Select("id, title").First(&listing, *message.ListingID).Error; err == nil {
			subject = fmt.Sprintf("New message from %s about %q", senderName, listing.Title)
		}
	}

	ns.Send(receiver.Email, subject, message.Content)
}

// Send delivers one email through the provider API. Exported so other flows
// (password reset) can reuse the transport.
func (ns *NotificationService) Send(to, subject, body string) {
	apiKey := os.Getenv("EMAIL_API_KEY")
	if apiKey == "" {
		log.Println("notification: EMAIL_API_KEY not set, skipping email")
		return
	}
	endpoint := os.Getenv("EMAIL_API_URL")
	if endpoint == "" {
		endpoint = "https://api.resend.com/emails"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "noreply@classifieds.local"
	}

	payload, err := json.Marshal(emailPayload{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		log.Printf("notification: marshal failed: %v", err)
		return
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("notification: building request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := ns.client.Do(req)
	if err != nil {
		log.Printf("notification: email send failed: %v", err)
		return
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		log.Printf("notification: email provider returned %d for %s", res.StatusCode, to)
	}
}
