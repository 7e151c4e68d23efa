package receipt

import (
	"fmt"
	"time"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

// Field identifies a value drawn onto the receipt template.
type Field string

const (
	FieldReceiptNo       Field = "receipt_no"
	FieldPAN             Field = "pan"
	FieldSalutationName  Field = "salutation_name"
	FieldAmountThanks    Field = "amount_thanks"
	FieldAmountSentence  Field = "amount_sentence"
	FieldDonationDate    Field = "donation_date"
	FieldPaymentMode     Field = "payment_mode"
	FieldAmountINR       Field = "amount_inr"
	FieldTransactionID   Field = "transaction_id"
	FieldCertificateName Field = "certificate_name"
)

// Placement positions one field. X and Y are PDF points measured from the
// bottom-left corner of the page, the way the template was calibrated.
type Placement struct {
	Field Field
	X     float64
	Y     float64
}

// Layout maps receipt fields to template coordinates. Every coordinate is tied
// to one template asset; a new template needs a new Layout, not new code.
type Layout struct {
	Font       string
	FontSize   float64
	Placements []Placement
}

// Layout80G is calibrated for templates/80g.pdf (A4 portrait).
var Layout80G = Layout{
	Font:     "Helvetica",
	FontSize: 10,
	Placements: []Placement{
		{Field: FieldReceiptNo, X: 140, Y: 742},
		{Field: FieldPAN, X: 140, Y: 724},
		{Field: FieldSalutationName, X: 85, Y: 690},
		{Field: FieldAmountThanks, X: 310, Y: 668},
		{Field: FieldAmountSentence, X: 85, Y: 630},
		{Field: FieldDonationDate, X: 360, Y: 600},
		{Field: FieldPaymentMode, X: 360, Y: 565},
		{Field: FieldAmountINR, X: 360, Y: 550},
		{Field: FieldTransactionID, X: 360, Y: 460},
		{Field: FieldCertificateName, X: 270, Y: 360},
	},
}

// DateLayout is how donation dates are printed on receipts.
const DateLayout = "02 Jan 2006"

// Data is the donor information stamped onto a receipt.
type Data struct {
	ReceiptNo     string
	PANNumber     string
	FullName      string
	Amount        float64
	DonationDate  time.Time
	TransactionID string
	PaymentMode   string
}

// Values renders every field of d as the text drawn on the page.
func (d Data) Values() map[Field]string {
	amount := domain.FormatAmount(d.Amount)
	pan := d.PANNumber
	if pan == "" {
		pan = "-"
	}
	return map[Field]string{
		FieldReceiptNo:       d.ReceiptNo,
		FieldPAN:             pan,
		FieldSalutationName:  d.FullName,
		FieldAmountThanks:    amount,
		FieldAmountSentence:  fmt.Sprintf("a sum of Rs. %s/- towards our charitable objects", amount),
		FieldDonationDate:    d.DonationDate.Format(DateLayout),
		FieldPaymentMode:     d.PaymentMode,
		FieldAmountINR:       "INR " + amount,
		FieldTransactionID:   d.TransactionID,
		FieldCertificateName: d.FullName,
	}
}
