package service

import (
	"context"
	"fmt"
	"strings"

	"mahabharata-landing/internal/model"
	"mahabharata-landing/pkg/logger"
)

// WaitlistSubmitter forwards entries to the spreadsheet endpoint
type WaitlistSubmitter interface {
	Submit(ctx context.Context, entry model.WaitlistEntry) error
}

// WaitlistService handles waitlist signups
type WaitlistService struct {
	submitter WaitlistSubmitter
	notifier  Notifier
	logger    *logger.Logger
}

// NewWaitlistService creates a new waitlist service
func NewWaitlistService(submitter WaitlistSubmitter, notifier Notifier, log *logger.Logger) *WaitlistService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WaitlistService{
		submitter: submitter,
		notifier:  notifier,
		logger:    log,
	}
}

// NormalizeEntry trims names and lowercases the email
func NormalizeEntry(e model.WaitlistEntry) model.WaitlistEntry {
	return model.WaitlistEntry{
		FirstName: strings.TrimSpace(e.FirstName),
		LastName:  strings.TrimSpace(e.LastName),
		Email:     strings.ToLower(strings.TrimSpace(e.Email)),
	}
}

// Join submits one signup. The operator notification is sent in the
// background and does not affect the result.
func (s *WaitlistService) Join(ctx context.Context, entry model.WaitlistEntry) error {
	entry = NormalizeEntry(entry)

	if err := s.submitter.Submit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "Waitlist submission failed", "error", err)
		return fmt.Errorf("failed to join waitlist: %w", err)
	}

	s.logger.InfoContext(ctx, "Waitlist signup recorded")

	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.Notify(notifyCtx, WaitlistJoinedMessage(entry)); err != nil {
			s.logger.ErrorContext(notifyCtx, "Failed to send waitlist notification", "error", err)
		}
	}()

	return nil
}
