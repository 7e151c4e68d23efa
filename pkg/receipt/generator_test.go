package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "80g.pdf")
	tpl := gofpdf.New("P", "pt", "A4", "")
	tpl.AddPage()
	tpl.SetFont("Helvetica", "B", 14)
	tpl.Text(60, 60, "80G Donation Receipt")
	require.NoError(t, tpl.OutputFileAndClose(path))
	return path
}

func sampleData(receiptNo string) Data {
	return Data{
		ReceiptNo:     receiptNo,
		FullName:      "Asha Verma",
		Amount:        2500,
		DonationDate:  time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		TransactionID: "pay_Q1",
		PaymentMode:   "UPI",
	}
}

func TestGenerateWritesNamedReceipt(t *testing.T) {
	out := filepath.Join(t.TempDir(), "generated")
	g := NewGenerator(writeTemplate(t), out)

	path, err := g.Generate(context.Background(), sampleData("R100"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "80G_R100.pdf"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(content) > 0)
	assert.Equal(t, "%PDF", string(content[:4]))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateDistinctReceiptsDoNotCollide(t *testing.T) {
	out := t.TempDir()
	g := NewGenerator(writeTemplate(t), out)

	first, err := g.Generate(context.Background(), sampleData("R100"))
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), sampleData("R101"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestGenerateMissingTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "generated")
	g := NewGenerator(filepath.Join(t.TempDir(), "nope.pdf"), out)

	_, err := g.Generate(context.Background(), sampleData("R100"))
	assert.ErrorIs(t, err, ErrTemplateUnavailable)
	assert.NoFileExists(t, filepath.Join(out, "80G_R100.pdf"))
}

func TestGenerateCorruptTemplate(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "80g.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))
	g := NewGenerator(bad, t.TempDir())

	_, err := g.Generate(context.Background(), sampleData("R100"))
	assert.ErrorIs(t, err, ErrTemplateUnavailable)
}

func TestGenerateRejectsUnsafeReceiptNo(t *testing.T) {
	g := NewGenerator(writeTemplate(t), t.TempDir())

	for _, no := range []string{"", "../etc/passwd", "R 1", "a/b"} {
		_, err := g.Generate(context.Background(), sampleData(no))
		assert.ErrorIs(t, err, ErrInvalidReceiptNo, no)
	}
}

func TestValuesFillsDefaults(t *testing.T) {
	v := sampleData("R1").Values()

	assert.Equal(t, "-", v[FieldPAN])
	assert.Equal(t, "INR 2500", v[FieldAmountINR])
	assert.Equal(t, "16 Oct 2026", v[FieldDonationDate])
	assert.Equal(t, "Asha Verma", v[FieldCertificateName])
	assert.Contains(t, v[FieldAmountSentence], "Rs. 2500/-")

	d := sampleData("R1")
	d.PANNumber = "ABCDE1234F"
	assert.Equal(t, "ABCDE1234F", d.Values()[FieldPAN])
}

func TestLayoutCoversEveryField(t *testing.T) {
	values := sampleData("R1").Values()
	seen := map[Field]bool{}
	for _, p := range Layout80G.Placements {
		seen[p.Field] = true
		assert.Contains(t, values, p.Field)
	}
	assert.Len(t, seen, len(values))
}
