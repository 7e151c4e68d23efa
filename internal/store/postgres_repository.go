/**
 * @description
 * This file implements the Repository on PostgreSQL using pgx. Each record kind
 * maps to one table; subscribers.email carries a unique constraint and a
 * violation (SQLSTATE 23505) is reported as ErrDuplicateKey.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pool.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    subscribed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
    id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    fullname TEXT NOT NULL,
    email    TEXT NOT NULL,
    subject  TEXT NOT NULL,
    phone    TEXT NOT NULL DEFAULT '',
    message  TEXT NOT NULL,
    sent_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS helpdesk_enquiries (
    id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name     TEXT NOT NULL,
    phone    TEXT NOT NULL DEFAULT '',
    email    TEXT NOT NULL,
    type     TEXT NOT NULL,
    org_name TEXT NOT NULL,
    enquiry  TEXT NOT NULL,
    sent_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS donations (
    id                    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    full_name             TEXT NOT NULL,
    mobile_number         TEXT NOT NULL DEFAULT '',
    email                 TEXT NOT NULL,
    address               TEXT NOT NULL DEFAULT '',
    country               TEXT NOT NULL DEFAULT '',
    pincode               TEXT NOT NULL DEFAULT '',
    state                 TEXT NOT NULL DEFAULT '',
    city                  TEXT NOT NULL DEFAULT '',
    pan_number            TEXT NOT NULL DEFAULT '',
    amount                NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
    terms_accepted        BOOLEAN NOT NULL DEFAULT FALSE,
    communication_consent BOOLEAN NOT NULL DEFAULT FALSE,
    razorpay_payment_id   TEXT NOT NULL,
    razorpay_order_id     TEXT NOT NULL,
    razorpay_signature    TEXT NOT NULL,
    receipt_no            TEXT NOT NULL,
    payment_mode          TEXT NOT NULL DEFAULT '',
    paid_at               TIMESTAMPTZ NOT NULL
);
`

// PostgresRepository writes records to PostgreSQL.
type PostgresRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// ConnectPostgres opens a connection pool configured like the other services:
// bounded pool size and the simple query protocol for PgBouncer compatibility.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepository(pool), nil
}

// NewPostgresRepository creates a repository on an existing pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// EnsureSchema creates the record tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateSubscriber(ctx context.Context, s *domain.Subscriber) error {
	if err := validate(domain.KindSubscriber, s); err != nil {
		return err
	}
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = r.now()
	}
	query := `
        INSERT INTO subscribers (email, subscribed_at)
        VALUES ($1, $2)
        RETURNING id::text
    `
	if err := r.db.QueryRow(ctx, query, s.Email, s.SubscribedAt).Scan(&s.ID); err != nil {
		return translatePgError("subscribers", err)
	}
	return nil
}

func (r *PostgresRepository) CreateContact(ctx context.Context, c *domain.Contact) error {
	if err := validate(domain.KindContact, c); err != nil {
		return err
	}
	if c.SentAt.IsZero() {
		c.SentAt = r.now()
	}
	query := `
        INSERT INTO contacts (fullname, email, subject, phone, message, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id::text
    `
	err := r.db.QueryRow(ctx, query,
		c.FullName,
		c.Email,
		c.Subject,
		c.Phone,
		c.Message,
		c.SentAt,
	).Scan(&c.ID)
	if err != nil {
		return translatePgError("contacts", err)
	}
	return nil
}

func (r *PostgresRepository) CreateHelpdesk(ctx context.Context, h *domain.Helpdesk) error {
	if err := validate(domain.KindHelpdesk, h); err != nil {
		return err
	}
	if h.SentAt.IsZero() {
		h.SentAt = r.now()
	}
	query := `
        INSERT INTO helpdesk_enquiries (name, phone, email, type, org_name, enquiry, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id::text
    `
	err := r.db.QueryRow(ctx, query,
		h.Name,
		h.Phone,
		h.Email,
		h.Type,
		h.OrgName,
		h.Enquiry,
		h.SentAt,
	).Scan(&h.ID)
	if err != nil {
		return translatePgError("helpdesk_enquiries", err)
	}
	return nil
}

func (r *PostgresRepository) CreateDonation(ctx context.Context, d *domain.Donation) error {
	if err := validate(domain.KindDonation, d); err != nil {
		return err
	}
	if d.PaidAt.IsZero() {
		d.PaidAt = r.now()
	}
	query := `
        INSERT INTO donations (
            full_name, mobile_number, email, address, country, pincode, state, city,
            pan_number, amount, terms_accepted, communication_consent,
            razorpay_payment_id, razorpay_order_id, razorpay_signature,
            receipt_no, payment_mode, paid_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
        RETURNING id::text
    `
	err := r.db.QueryRow(ctx, query,
		d.FullName,
		d.MobileNumber,
		d.Email,
		d.Address,
		d.Country,
		d.Pincode,
		d.State,
		d.City,
		d.PANNumber,
		d.Amount,
		d.TermsAccepted,
		d.CommunicationConsent,
		d.RazorpayPaymentID,
		d.RazorpayOrderID,
		d.RazorpaySignature,
		d.ReceiptNo,
		d.PaymentMode,
		d.PaidAt,
	).Scan(&d.ID)
	if err != nil {
		return translatePgError("donations", err)
	}
	return nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.db.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func translatePgError(table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("insert into %s: %w", table, ErrDuplicateKey)
	}
	return fmt.Errorf("insert into %s: %w", table, err)
}
