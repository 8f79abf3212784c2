package email

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sony/gobreaker"
)

// Mailer delivers a plain text message.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SESClient is the subset of the SES client used here.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, from, to, subject, body string) error {
	return nil
}

func Noop() Mailer {
	return noopMailer{}
}

type sesMailer struct {
	client  SESClient
	breaker *gobreaker.CircuitBreaker
}

// NewSES wraps client in a circuit breaker so a failing SES endpoint stops
// being called for a while instead of slowing every notification.
func NewSES(client SESClient) Mailer {
	settings := gobreaker.Settings{
		Name:        "ses",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}
	return &sesMailer{client: client, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (m *sesMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	if strings.TrimSpace(from) == "" {
		return errors.New("sender address required")
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return m.client.SendEmail(ctx, input)
	})
	return err
}
