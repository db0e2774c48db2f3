// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"travellite/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

var _ Repository = (*Store)(nil)

func (s *Store) Create(ctx context.Context, b *Booking) error {
	quote, err := json.Marshal(b.Quote)
	if err != nil {
		return err
	}
	photos, err := json.Marshal(b.LuggagePhotos)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, booking_code, customer_id, source_station_id, destination_station_id,
			distance_km, quote, security_items, contact_name, contact_phone, contact_email,
			luggage_photos, status, status_version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		string(b.ID), b.BookingCode, string(b.CustomerID),
		string(b.SourceStationID), string(b.DestinationStationID),
		b.DistanceKm, quote, b.SecurityItems,
		b.ContactInfo.Name, b.ContactInfo.Phone, b.ContactInfo.Email,
		photos, string(b.Status), b.StatusVersion, b.CreatedAt, b.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "bookings_booking_code_key" {
			return ErrDuplicateCode
		}
		return ErrConflict
	}
	if err != nil {
		return err
	}
	for _, e := range b.TrackingHistory {
		if err := appendEvent(ctx, tx, b.ID, e); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const bookingColumns = `
	id, booking_code, customer_id, source_station_id, destination_station_id,
	distance_km, quote, security_items, contact_name, contact_phone, contact_email,
	luggage_photos, status, status_version, payment_method, transaction_id,
	payment_amount, paid_at, cancel_reason, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_code = $1`, code)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC`, string(customerID),
	)
	if err != nil {
		return nil, err
	}
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range out {
		if err := s.loadHistory(ctx, b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus applies the transition and its tracking event in one
// transaction, guarded by status and status_version.
func (s *Store) UpdateStatus(ctx context.Context, u StatusUpdate) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var method, txnID *string
	var amount *int64
	var paidAt *time.Time
	if u.Payment != nil {
		method, txnID = &u.Payment.Method, &u.Payment.TransactionID
		amount, paidAt = &u.Payment.Amount.Amount, &u.Payment.PaidAt
	}
	var reason *string
	if u.CancelReason != "" {
		reason = &u.CancelReason
	}

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
			status_version = status_version + 1,
			payment_method = COALESCE($2, payment_method),
			transaction_id = COALESCE($3, transaction_id),
			payment_amount = COALESCE($4, payment_amount),
			paid_at = COALESCE($5, paid_at),
			cancel_reason = COALESCE($6, cancel_reason),
			updated_at = $7
		WHERE id = $8 AND status = $9 AND status_version = $10`,
		string(u.To), method, txnID, amount, paidAt, reason, u.Track.Timestamp,
		string(u.BookingID), string(u.From), u.Version,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if err := appendEvent(ctx, tx, u.BookingID, u.Track); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func appendEvent(ctx context.Context, tx pgx.Tx, bookingID types.ID, e TrackingEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_tracking_events (booking_id, status, location, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(bookingID), e.Status, string(e.Location), e.Notes, e.Timestamp,
	)
	return err
}

func (s *Store) loadHistory(ctx context.Context, b *Booking) error {
	rows, err := s.db.Query(ctx, `
		SELECT status, location, notes, created_at
		FROM booking_tracking_events
		WHERE booking_id = $1
		ORDER BY id`, string(b.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.TrackingHistory = b.TrackingHistory[:0]
	for rows.Next() {
		var e TrackingEvent
		var location string
		if err := rows.Scan(&e.Status, &location, &e.Notes, &e.Timestamp); err != nil {
			return err
		}
		e.Location = types.ID(location)
		b.TrackingHistory = append(b.TrackingHistory, e)
	}
	return rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var id, customerID, sourceID, destinationID, status string
	var quote, photos []byte
	var method, txnID, reason *string
	var amount *int64
	var paidAt *time.Time

	err := row.Scan(
		&id, &b.BookingCode, &customerID, &sourceID, &destinationID,
		&b.DistanceKm, &quote, &b.SecurityItems, &b.ContactInfo.Name, &b.ContactInfo.Phone, &b.ContactInfo.Email,
		&photos, &status, &b.StatusVersion, &method, &txnID,
		&amount, &paidAt, &reason, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.ID = types.ID(id)
	b.CustomerID = types.ID(customerID)
	b.SourceStationID = types.ID(sourceID)
	b.DestinationStationID = types.ID(destinationID)
	b.Status = Status(status)
	if err := json.Unmarshal(quote, &b.Quote); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photos, &b.LuggagePhotos); err != nil {
		return nil, err
	}
	if method != nil && txnID != nil {
		p := &PaymentInfo{Method: *method, TransactionID: *txnID}
		if amount != nil {
			p.Amount = types.INR(*amount)
		}
		if paidAt != nil {
			p.PaidAt = *paidAt
		}
		b.PaymentInfo = p
	}
	if reason != nil {
		b.CancelReason = *reason
	}
	return &b, nil
}
