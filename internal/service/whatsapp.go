package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/pkg/logger"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// WhatsAppNotifier sends operator notifications to a WhatsApp chat or group
type WhatsAppNotifier struct {
	client      *whatsmeow.Client
	container   *sqlstore.Container
	destination string
	countryCode string
	logger      *logger.Logger
}

// NewWhatsAppNotifier opens the WhatsApp session store and prepares a client
func NewWhatsAppNotifier(cfg *config.NotifyConfig, log *logger.Logger) (*WhatsAppNotifier, error) {
	ctx := context.Background()

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", cfg.DBPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	// Get first device or create new one
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &WhatsAppNotifier{
		client:      whatsmeow.NewClient(deviceStore, waLog.Noop),
		container:   container,
		destination: cfg.Destination,
		countryCode: cfg.DefaultCountryCode,
		logger:      log,
	}, nil
}

// Connect connects to WhatsApp, pairing with a terminal QR code when there
// is no stored session
func (n *WhatsAppNotifier) Connect(ctx context.Context) error {
	if n.client.Store.ID == nil {
		n.logger.Info("No logged in session found, starting QR code pairing...")
		return n.pair(ctx)
	}

	n.logger.Info("Existing session found, connecting...")
	n.client.AddEventHandler(n.handleEvent)

	if err := n.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	n.logger.Info("WhatsApp client connected successfully")
	return nil
}

func (n *WhatsAppNotifier) pair(ctx context.Context) error {
	qrChan, err := n.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	n.client.AddEventHandler(n.handleEvent)

	if err := n.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to WhatsApp: %w", err)
	}

	qrCount := 0
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			qrCount++
			if qrCount == 1 {
				fmt.Println("\nScan this code in WhatsApp > Settings > Linked Devices > Link a Device:")
			} else {
				fmt.Printf("\nQR code refreshed (#%d):\n", qrCount)
			}
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			n.logger.Info("QR code displayed", "refresh_count", qrCount)
		case "success":
			n.logger.Info("Pairing successful")
			return nil
		case "timeout":
			return fmt.Errorf("QR code scan timeout")
		default:
			if evt.Error != nil {
				return fmt.Errorf("QR code error: %w", evt.Error)
			}
			n.logger.Info("QR channel event", "event", evt.Event)
		}
	}

	if n.client.IsLoggedIn() {
		return nil
	}
	return fmt.Errorf("pairing ended without login")
}

// Disconnect disconnects from WhatsApp
func (n *WhatsAppNotifier) Disconnect() {
	n.client.Disconnect()
	n.logger.Info("WhatsApp client disconnected")
}

// IsConnected checks if client is connected
func (n *WhatsAppNotifier) IsConnected() bool {
	return n.client.IsConnected()
}

// ResolveDestination parses a group JID or normalizes a phone number into a JID
func (n *WhatsAppNotifier) ResolveDestination(destination string) (types.JID, string, error) {
	if strings.Contains(destination, "@") {
		jid, err := types.ParseJID(destination)
		if err != nil {
			return types.JID{}, "", fmt.Errorf("invalid JID: %w", err)
		}
		if jid.Server == types.GroupServer {
			return jid, "group", nil
		}
		return jid, "personal", nil
	}

	phone := NormalizePhoneNumber(destination, n.countryCode)
	if phone == "" {
		return types.JID{}, "", fmt.Errorf("invalid phone number format")
	}
	return types.NewJID(phone, types.DefaultUserServer), "personal", nil
}

// NormalizePhoneNumber strips formatting, drops leading zeros and prefixes
// countryCode to national numbers. It returns "" for implausible lengths.
func NormalizePhoneNumber(phone, countryCode string) string {
	phone = nonDigits.ReplaceAllString(phone, "")
	phone = strings.TrimLeft(phone, "0")

	// Numbers of 10 digits or fewer are national even when they happen to
	// start with the country code.
	if countryCode != "" && (len(phone) <= 10 || !strings.HasPrefix(phone, countryCode)) {
		phone = countryCode + phone
	}

	if len(phone) < 11 || len(phone) > 15 {
		return ""
	}
	return phone
}

// Notify sends text to the configured destination
func (n *WhatsAppNotifier) Notify(ctx context.Context, text string) error {
	if !n.IsConnected() {
		return fmt.Errorf("WhatsApp client not connected")
	}

	jid, _, err := n.ResolveDestination(n.destination)
	if err != nil {
		return fmt.Errorf("invalid notification destination: %w", err)
	}

	resp, err := n.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	n.logger.WithDestination(jid.String()).Debug("Notification sent", "message_id", resp.ID)
	return nil
}

// handleEvent handles WhatsApp connection events
func (n *WhatsAppNotifier) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		n.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		n.logger.Warn("WhatsApp client disconnected")
	case *events.LoggedOut:
		n.logger.Error("Device logged out", "reason", v.Reason)
	case *events.PairSuccess:
		n.logger.Info("Pairing successful", "jid", v.ID.String())
	}
}

// GetConnectionStatus returns connection status information
func (n *WhatsAppNotifier) GetConnectionStatus() map[string]interface{} {
	status := map[string]interface{}{
		"enabled":   true,
		"connected": n.IsConnected(),
	}

	if n.client.Store.ID != nil {
		status["phone"] = n.client.Store.ID.User
	}

	return status
}

// GetJoinedGroups retrieves all groups the linked account is a member of,
// so operators can pick a notification destination
func (n *WhatsAppNotifier) GetJoinedGroups(ctx context.Context) ([]*types.GroupInfo, error) {
	if !n.IsConnected() {
		return nil, fmt.Errorf("WhatsApp client not connected")
	}

	groups, err := n.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get joined groups: %w", err)
	}

	return groups, nil
}
