/**
 * @description
 * This package sends transactional email through the Mailjet v3.1 send API.
 * Messages are plain structs; the templates in templates.go build one per
 * notification kind.
 *
 * @dependencies
 * - github.com/mailjet/mailjet-apiv3-go: The Mailjet API client.
 */
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// ErrDelivery is returned when the mail relay rejects a message or cannot be reached.
var ErrDelivery = errors.New("email delivery failed")

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single transactional email.
type Message struct {
	From        Address
	To          Address
	ReplyTo     *Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// AttachFile reads path and adds it to the message as an attachment.
func (m *Message) AttachFile(path, contentType string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment %s: %w", path, err)
	}
	m.Attachments = append(m.Attachments, Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	})
	return nil
}

type sender interface {
	SendMailV31(data *mailjet.MessagesV31) (*mailjet.ResultsV31, error)
}

// Mailer sends messages through Mailjet.
type Mailer struct {
	client sender
}

// New creates a Mailer for the given Mailjet API key pair.
func New(apiKey, secretKey string) *Mailer {
	return &Mailer{client: mailjet.NewMailjetClient(apiKey, secretKey)}
}

// Send delivers msg. Any relay failure is wrapped in ErrDelivery.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To.Email == "" {
		return fmt.Errorf("%w: message has no recipient", ErrDelivery)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	// The client call does not take a context, so run it aside and stop
	// waiting when ctx is done.
	done := make(chan error, 1)
	go func() {
		_, err := m.client.SendMailV31(&mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{toMailjet(msg)}})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrDelivery, ctx.Err())
	}
}

func toMailjet(msg Message) mailjet.InfoMessagesV31 {
	info := mailjet.InfoMessagesV31{
		From:     &mailjet.RecipientV31{Email: msg.From.Email, Name: msg.From.Name},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: msg.To.Email, Name: msg.To.Name}},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
	}
	if msg.ReplyTo != nil {
		info.ReplyTo = &mailjet.RecipientV31{Email: msg.ReplyTo.Email, Name: msg.ReplyTo.Name}
	}
	if len(msg.Attachments) > 0 {
		attachments := make(mailjet.AttachmentsV31, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			attachments = append(attachments, mailjet.AttachmentV31{
				ContentType:   a.ContentType,
				Filename:      a.Filename,
				Base64Content: base64.StdEncoding.EncodeToString(a.Content),
			})
		}
		info.Attachments = &attachments
	}
	return info
}
