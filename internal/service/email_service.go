package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"

	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	"github.com/formula-ihu/quiz-api/internal/export"
)

// confirmationKeyTTL outlives any quiz window; one confirmation per team is enough.
const confirmationKeyTTL = 7 * 24 * time.Hour

// ConfirmationEmail is the content of the post-submission email.
type ConfirmationEmail struct {
	TeamName        string
	TeamEmail       string
	VehicleCategory string
	Score           float64
	TimeTaken       int
	SubmittedAt     time.Time
	SubmissionID    uint
}

// EmailService sends transactional emails.
type EmailService interface {
	SendQuizConfirmation(ctx context.Context, msg ConfirmationEmail) error
}

// NoopEmailService is used when email is disabled.
type NoopEmailService struct{}

func (s *NoopEmailService) SendQuizConfirmation(ctx context.Context, msg ConfirmationEmail) error {
	log.Printf("[EmailService] noop quiz confirmation to=%s submission=%d", msg.TeamEmail, msg.SubmissionID)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
	// cache de-duplicates confirmations across instances; nil disables it
	cache repository.CacheRepository
}

func NewResendEmailService(apiKey, from string, cache repository.CacheRepository) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
		cache:  cache,
	}, nil
}

func confirmationKey(email string) string {
	return "quiz:confirmation:" + email
}

func (s *ResendEmailService) SendQuizConfirmation(ctx context.Context, msg ConfirmationEmail) error {
	if msg.TeamEmail == "" {
		return fmt.Errorf("team email is required")
	}

	if s.cache != nil {
		first, err := s.cache.SetNX(ctx, confirmationKey(msg.TeamEmail), msg.SubmissionID, confirmationKeyTTL)
		if err != nil {
			log.Printf("[EmailService] dedupe check failed for %s, sending anyway: %v", msg.TeamEmail, err)
		} else if !first {
			log.Printf("[EmailService] confirmation for %s already sent, skipping", msg.TeamEmail)
			return nil
		}
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.TeamEmail},
		Subject: "Formula IHU registration quiz: submission received",
		Text:    confirmationText(msg),
		Html:    confirmationHTML(msg),
	}
	options := &resend.SendEmailOptions{
		IdempotencyKey: uuid.NewSHA1(uuid.NameSpaceURL, []byte("quiz-confirmation:"+msg.TeamEmail)).String(),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				s.releaseKey(msg.TeamEmail)
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		s.releaseKey(msg.TeamEmail)
		return fmt.Errorf("resend send failed: %w", err)
	}

	s.releaseKey(msg.TeamEmail)
	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

// releaseKey lets a later attempt retry a confirmation that was never delivered.
func (s *ResendEmailService) releaseKey(email string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, confirmationKey(email)); err != nil {
		log.Printf("[EmailService] failed to release dedupe key for %s: %v", email, err)
	}
}

func confirmationText(msg ConfirmationEmail) string {
	return fmt.Sprintf(
		"Hello %s,\n\nWe received your registration quiz submission (%s vehicle).\nScore: %s\nTime taken: %s\nSubmitted at: %s\n\nFormula IHU",
		msg.TeamName, msg.VehicleCategory, export.FormatScore(msg.Score), export.FormatDuration(msg.TimeTaken),
		msg.SubmittedAt.UTC().Format(time.RFC1123),
	)
}

func confirmationHTML(msg ConfirmationEmail) string {
	return fmt.Sprintf(
		"<p>Hello %s,</p><p>We received your registration quiz submission (%s vehicle).</p>"+
			"<ul><li>Score: <strong>%s</strong></li><li>Time taken: %s</li><li>Submitted at: %s</li></ul><p>Formula IHU</p>",
		html.EscapeString(msg.TeamName), html.EscapeString(msg.VehicleCategory), export.FormatScore(msg.Score),
		export.FormatDuration(msg.TimeTaken), msg.SubmittedAt.UTC().Format(time.RFC1123),
	)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
