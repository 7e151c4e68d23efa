/**
 * @description
 * Operator script to re-issue an 80G receipt for a donation that was already
 * verified, for example when a donor lost the thank-you email. It stamps a fresh
 * PDF from the template and can optionally mail it to the donor again.
 *
 * Usage:
 *   go run ./cmd/issue-receipt -payment pay_XXXX -name "Donor Name" -amount 1500 [-pan ABCDE1234F] [-date 2026-10-16] [-email donor@example.org]
 *
 * @dependencies
 * - Environment variables: RAZORPAY_KEY_ID, RAZORPAY_KEY_SECRET (payment mode lookup),
 *   MAILJET_API_KEY, MAILJET_SECRET_KEY, MAIL_FROM_ADDRESS (only with -email)
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rajagurusk/mindron-backend/internal/app"
	"github.com/rajagurusk/mindron-backend/internal/config"
	"github.com/rajagurusk/mindron-backend/internal/domain"
	"github.com/rajagurusk/mindron-backend/pkg/mailer"
	"github.com/rajagurusk/mindron-backend/pkg/razorpay"
	"github.com/rajagurusk/mindron-backend/pkg/receipt"
)

func main() {
	paymentID := flag.String("payment", "", "Razorpay payment id (required)")
	orderID := flag.String("order", "", "Razorpay order id, shown in the email")
	name := flag.String("name", "", "donor full name (required)")
	amount := flag.Float64("amount", 0, "donation amount in rupees (required)")
	pan := flag.String("pan", "", "donor PAN")
	date := flag.String("date", time.Now().Format("2006-01-02"), "donation date, YYYY-MM-DD")
	email := flag.String("email", "", "send the receipt to this address")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if *paymentID == "" || strings.TrimSpace(*name) == "" || *amount <= 0 {
		flag.Usage()
		os.Exit(1)
	}
	paidAt, err := time.Parse("2006-01-02", *date)
	if err != nil {
		log.Fatalf("invalid -date %q: %v", *date, err)
	}

	// Load .env file for local runs. In production, env vars are set directly.
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	mode := razorpay.DefaultPaymentMode
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		mode = razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret).PaymentMethod(ctx, *paymentID)
	} else {
		fmt.Println("Razorpay keys not set; payment mode defaults to", mode)
	}

	data := receipt.Data{
		ReceiptNo:     app.ReceiptNumber(paidAt, *paymentID),
		PANNumber:     strings.ToUpper(strings.TrimSpace(*pan)),
		FullName:      strings.TrimSpace(*name),
		Amount:        *amount,
		DonationDate:  paidAt,
		TransactionID: *paymentID,
		PaymentMode:   mode,
	}

	fmt.Printf("Receipt Details:\n")
	fmt.Printf("  Receipt No: %s\n", data.ReceiptNo)
	fmt.Printf("  Donor: %s\n", data.FullName)
	fmt.Printf("  Amount: INR %s\n", domain.FormatAmount(data.Amount))
	fmt.Printf("  Payment: %s (%s)\n", data.TransactionID, data.PaymentMode)
	if *email != "" {
		fmt.Printf("  Email to: %s\n", *email)
	}

	if !*yes {
		fmt.Printf("\nIssue this receipt? (yes/no): ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			fmt.Println("Cancelled.")
			os.Exit(0)
		}
	}

	path, err := receipt.NewGenerator(cfg.ReceiptTemplate, cfg.ReceiptOutputDir).Generate(ctx, data)
	if err != nil {
		log.Fatalf("Failed to generate receipt: %v", err)
	}
	fmt.Printf("Receipt written to %s\n", path)

	if *email == "" {
		return
	}
	if cfg.MailjetAPIKey == "" || cfg.MailjetSecretKey == "" || cfg.MailFromAddress == "" {
		log.Fatal("MAILJET_API_KEY, MAILJET_SECRET_KEY and MAIL_FROM_ADDRESS are required to send email")
	}

	templates := mailer.Templates{From: mailer.Address{Email: cfg.MailFromAddress, Name: cfg.MailFromName}}
	msg := templates.DonationThanks(mailer.DonationFields{
		FullName:  data.FullName,
		Email:     *email,
		Amount:    data.Amount,
		OrderID:   *orderID,
		ReceiptNo: data.ReceiptNo,
	})
	if err := msg.AttachFile(path, "application/pdf"); err != nil {
		log.Fatalf("Failed to attach receipt: %v", err)
	}
	if err := mailer.New(cfg.MailjetAPIKey, cfg.MailjetSecretKey).Send(ctx, msg); err != nil {
		log.Fatalf("Failed to send receipt: %v", err)
	}
	fmt.Printf("Receipt sent to %s\n", *email)
}
