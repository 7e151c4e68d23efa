package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

// Kind names a notification template.
type Kind string

const (
	KindWelcome        Kind = "welcome"
	KindContactAck     Kind = "contact-ack"
	KindHelpdeskAck    Kind = "helpdesk-ack"
	KindDonationThanks Kind = "donation-thanks"
)

// Templates builds the message for each notification kind. From is the
// organisation's sending mailbox and Inbox receives form submissions.
type Templates struct {
	From  Address
	Inbox Address
}

// ContactFields is the data interpolated into a contact notice.
type ContactFields struct {
	FullName string
	Email    string
	Phone    string
	Subject  string
	Message  string
}

// HelpdeskFields is the data interpolated into a helpdesk notice.
type HelpdeskFields struct {
	Name    string
	Email   string
	Phone   string
	Type    string
	OrgName string
	Enquiry string
}

// DonationFields is the data interpolated into a thank-you mail.
type DonationFields struct {
	FullName  string
	Email     string
	Amount    float64
	OrderID   string
	ReceiptNo string
}

// Welcome greets a new newsletter subscriber.
func (t Templates) Welcome(email string) Message {
	e := html.EscapeString(email)
	return Message{
		From:    t.From,
		To:      Address{Email: email},
		Subject: "Welcome to " + t.From.Name + "!",
		Text: fmt.Sprintf("Dear %s,\n\nThank you for joining the %s community!\n\n"+
			"Your subscription helps us create and share valuable updates, initiatives, and opportunities to make a difference. "+
			"You'll be among the first to know about our latest projects, events, and ways you can get involved.\n\n"+
			"If you have any questions or suggestions, feel free to reply to this email.\n\nWarm regards,\n%s Team\n",
			email, t.From.Name, t.From.Name),
		HTML: fmt.Sprintf(`<p>Dear <b>%s</b>,</p>
<p>
  Thank you for joining the %s community!<br><br>
  Your subscription helps us create and share valuable updates, initiatives, and opportunities to make a difference. We appreciate your support and commitment to our mission.<br><br>
  You'll be among the first to know about our latest projects, events, and ways you can get involved.<br><br>
  If you have any questions or suggestions, feel free to reply to this email.<br><br>
  Warm regards,<br>
  %s Team
</p>`, e, html.EscapeString(t.From.Name), html.EscapeString(t.From.Name)),
	}
}

// ContactAck forwards a contact-form submission to the organisation inbox.
// Replies go to the submitter.
func (t Templates) ContactAck(c ContactFields) Message {
	return Message{
		From:    Address{Email: t.From.Email, Name: "Website Contact"},
		To:      t.Inbox,
		ReplyTo: &Address{Email: c.Email, Name: c.FullName},
		Subject: "Contact Form Submission: " + c.Subject,
		Text: fmt.Sprintf("Full Name: %s\nEmail: %s\nPhone: %s\nSubject: %s\nMessage: %s\n",
			c.FullName, c.Email, c.Phone, c.Subject, c.Message),
		HTML: "<h2>Contact Form Submission</h2>\n" + htmlRows(
			"Full Name", c.FullName,
			"Email", c.Email,
			"Phone", c.Phone,
			"Subject", c.Subject,
			"Message", c.Message,
		),
	}
}

// HelpdeskAck forwards a helpdesk enquiry to the organisation inbox.
func (t Templates) HelpdeskAck(h HelpdeskFields) Message {
	return Message{
		From:    Address{Email: t.From.Email, Name: "Helpdesk Enquiry"},
		To:      t.Inbox,
		ReplyTo: &Address{Email: h.Email, Name: h.Name},
		Subject: fmt.Sprintf("Helpdesk Enquiry from %s (%s)", h.Name, h.Type),
		Text: fmt.Sprintf("Name: %s\nPhone: %s\nEmail: %s\nType: %s\nOrganization/Company/Charity: %s\nEnquiry Regarding: %s\n",
			h.Name, h.Phone, h.Email, h.Type, h.OrgName, h.Enquiry),
		HTML: "<h2>Helpdesk Enquiry</h2>\n" + htmlRows(
			"Name", h.Name,
			"Phone", h.Phone,
			"Email", h.Email,
			"Type", h.Type,
			"Organization/Company/Charity", h.OrgName,
			"Enquiry Regarding", h.Enquiry,
		),
	}
}

// DonationThanks thanks a donor. The caller attaches the 80G receipt.
func (t Templates) DonationThanks(d DonationFields) Message {
	amount := domain.FormatAmount(d.Amount)
	return Message{
		From:    t.From,
		To:      Address{Email: d.Email, Name: d.FullName},
		Subject: "Thank you for your donation!",
		Text: fmt.Sprintf("Thank You for Donating!\n\nAmount: Rs. %s\nName: %s\nOrder ID: %s\nReceipt No: %s\n\n"+
			"Your 80G receipt is attached.\n\nWe appreciate your support.\n%s\n",
			amount, d.FullName, d.OrderID, d.ReceiptNo, t.From.Name),
		HTML: "<h2>Thank You for Donating!</h2>\n" + htmlRows(
			"Amount", "₹"+amount,
			"Name", d.FullName,
			"Order ID", d.OrderID,
			"Receipt No", d.ReceiptNo,
		) + fmt.Sprintf("<p>Your 80G receipt is attached.</p>\n<p>We appreciate your support.<br>%s</p>\n",
			html.EscapeString(t.From.Name)),
	}
}

func htmlRows(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "<p><b>%s:</b> %s</p>\n", pairs[i], html.EscapeString(pairs[i+1]))
	}
	return b.String()
}
