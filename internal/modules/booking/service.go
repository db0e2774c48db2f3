// README: Booking service drives the lifecycle: guarded transitions, tracking history, events.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"travellite/internal/modules/pricing"
	"travellite/internal/modules/station"
	"travellite/internal/types"
)

// StationLookup resolves station ids. Lookup errors are returned unchanged.
type StationLookup interface {
	Lookup(ctx context.Context, id types.ID) (station.Station, error)
}

// Publisher receives committed status changes. Failures are logged only.
type Publisher interface {
	Publish(ctx context.Context, change StatusChange) error
}

// PopularityRecorder counts bookings per station.
type PopularityRecorder interface {
	RecordBooking(ctx context.Context, ids ...types.ID)
}

type Service struct {
	repo       Repository
	stations   StationLookup
	publisher  Publisher
	popularity PopularityRecorder
	locks      *keyedMutex
	now        func() time.Time
	newCode    func(time.Time) string
}

func NewService(repo Repository, stations StationLookup, publisher Publisher, popularity PopularityRecorder) *Service {
	return &Service{
		repo:       repo,
		stations:   stations,
		publisher:  publisher,
		popularity: popularity,
		locks:      newKeyedMutex(),
		now:        time.Now,
		newCode:    NewCode,
	}
}

type CreateCommand struct {
	CustomerID           types.ID
	SourceStationID      types.ID
	DestinationStationID types.ID
	DistanceKm           float64
	Quote                *pricing.Quote
	SecurityItems        []string
	Contact              ContactInfo
	Photos               []Photo
}

type ConfirmPaymentCommand struct {
	BookingID types.ID
	// CustomerID, when set, must own the booking.
	CustomerID types.ID
	Method     string
}

type AcceptLuggageCommand struct {
	BookingID      types.ID
	StaffStationID types.ID
}

type DispatchCommand struct {
	BookingID      types.ID
	StaffStationID types.ID
}

type DeliverCommand struct {
	BookingID      types.ID
	StaffStationID types.ID
}

type CancelCommand struct {
	BookingID  types.ID
	CustomerID types.ID
	Reason     string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}
	if s.stations != nil {
		if _, err := s.stations.Lookup(ctx, cmd.SourceStationID); err != nil {
			return nil, err
		}
		if _, err := s.stations.Lookup(ctx, cmd.DestinationStationID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	b := &Booking{
		ID:                   types.ID(uuid.NewString()),
		CustomerID:           cmd.CustomerID,
		SourceStationID:      cmd.SourceStationID,
		DestinationStationID: cmd.DestinationStationID,
		DistanceKm:           cmd.DistanceKm,
		Quote:                *cmd.Quote,
		SecurityItems:        append([]string(nil), cmd.SecurityItems...),
		ContactInfo:          cmd.Contact,
		LuggagePhotos:        append([]Photo(nil), cmd.Photos...),
		Status:               StatusPendingPayment,
		StatusVersion:        0,
		TrackingHistory: []TrackingEvent{{
			Status:    TrackBookingCreated,
			Location:  cmd.SourceStationID,
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		b.BookingCode = s.newCode(now)
		err = s.repo.Create(ctx, b)
		if err != ErrDuplicateCode {
			break
		}
		log.Printf("[BOOKING] action=create msg=\"booking code collision\" code=%s attempt=%d", b.BookingCode, attempt+1)
	}
	if err != nil {
		return nil, err
	}

	transitionsTotal.WithLabelValues(string(EventCreate)).Inc()
	log.Printf("[BOOKING] action=create booking_id=%s code=%s customer_id=%s route=%s->%s", b.ID, b.BookingCode, b.CustomerID, b.SourceStationID, b.DestinationStationID)
	if s.popularity != nil {
		s.popularity.RecordBooking(ctx, b.SourceStationID, b.DestinationStationID)
	}
	s.publish(ctx, b, EventCreate, "", StatusPendingPayment, b.TrackingHistory[0])
	return b, nil
}

func validateCreate(cmd CreateCommand) error {
	if cmd.CustomerID == "" {
		return types.Validation("customer_id", "customer id is required")
	}
	if cmd.SourceStationID == "" {
		return types.Validation("source_station_id", "source station is required")
	}
	if cmd.DestinationStationID == "" {
		return types.Validation("destination_station_id", "destination station is required")
	}
	if cmd.SourceStationID == cmd.DestinationStationID {
		return types.Validation("destination_station_id", "Source and destination stations cannot be the same")
	}
	if err := validatePhotos(cmd.Photos); err != nil {
		return err
	}
	if strings.TrimSpace(cmd.Contact.Phone) == "" {
		return types.Validation("contact_info.phone", "contact phone is required")
	}
	if cmd.Quote == nil {
		return types.Validation("quote", "a computed quote is required")
	}
	return nil
}

// validatePhotos requires exactly one photo per angle in RequiredAngles.
func validatePhotos(photos []Photo) error {
	if len(photos) != len(RequiredAngles) {
		return types.Validation("luggage_photos", fmt.Sprintf("exactly %d luggage photos are required, got %d", len(RequiredAngles), len(photos)))
	}
	seen := make(map[Angle]bool, len(photos))
	for _, p := range photos {
		known := false
		for _, a := range RequiredAngles {
			if p.Angle == a {
				known = true
				break
			}
		}
		if !known {
			return types.Validation("luggage_photos", fmt.Sprintf("unknown luggage photo angle: %q", p.Angle))
		}
		if strings.TrimSpace(p.URL) == "" {
			return types.Validation("luggage_photos", fmt.Sprintf("luggage photo %s has no url", p.Angle))
		}
		seen[p.Angle] = true
	}
	for _, a := range RequiredAngles {
		if !seen[a] {
			return types.Validation("luggage_photos", fmt.Sprintf("missing luggage photo angle: %s", a))
		}
	}
	return nil
}

func (s *Service) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (*Booking, error) {
	if strings.TrimSpace(cmd.Method) == "" {
		return nil, types.Validation("payment_method", "payment method is required")
	}
	return s.transition(ctx, cmd.BookingID, EventConfirmPayment, func(b *Booking, u *StatusUpdate) error {
		if err := checkOwner(b, cmd.CustomerID); err != nil {
			return err
		}
		u.Payment = &PaymentInfo{
			Method:        cmd.Method,
			TransactionID: newTransactionID(),
			Amount:        b.Quote.Total,
			PaidAt:        u.Track.Timestamp,
		}
		return nil
	})
}

func (s *Service) AcceptLuggage(ctx context.Context, cmd AcceptLuggageCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, EventCollectLuggage, func(b *Booking, u *StatusUpdate) error {
		if cmd.StaffStationID != b.SourceStationID {
			return types.Forbidden("luggage can only be accepted at the source station")
		}
		u.Track.Location = cmd.StaffStationID
		return nil
	})
}

// Dispatch marks collected luggage as leaving the source station.
func (s *Service) Dispatch(ctx context.Context, cmd DispatchCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, EventDispatch, func(b *Booking, u *StatusUpdate) error {
		if cmd.StaffStationID != b.SourceStationID {
			return types.Forbidden("luggage can only be dispatched from the source station")
		}
		u.Track.Location = cmd.StaffStationID
		return nil
	})
}

// Deliver hands luggage over at the destination station.
func (s *Service) Deliver(ctx context.Context, cmd DeliverCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, EventDeliver, func(b *Booking, u *StatusUpdate) error {
		if cmd.StaffStationID != b.DestinationStationID {
			return types.Forbidden("luggage can only be delivered at the destination station")
		}
		u.Track.Location = cmd.StaffStationID
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Booking, error) {
	return s.transition(ctx, cmd.BookingID, EventCancel, func(b *Booking, u *StatusUpdate) error {
		if err := checkOwner(b, cmd.CustomerID); err != nil {
			return err
		}
		u.Track.Notes = cmd.Reason
		u.CancelReason = cmd.Reason
		return nil
	})
}

// transition runs one event under the booking's lock. prepare may reject the
// request or enrich the update; it runs before the state check so station and
// ownership failures are reported as forbidden.
func (s *Service) transition(ctx context.Context, id types.ID, ev Event, prepare func(*Booking, *StatusUpdate) error) (*Booking, error) {
	if id == "" {
		return nil, types.Validation("booking_id", "booking id is required")
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	u := StatusUpdate{
		BookingID: b.ID,
		From:      b.Status,
		Version:   b.StatusVersion,
		Track:     TrackingEvent{Timestamp: s.now()},
	}
	if last, ok := b.lastEvent(); ok && u.Track.Timestamp.Before(last.Timestamp) {
		u.Track.Timestamp = last.Timestamp
	}
	if err := prepare(b, &u); err != nil {
		return nil, err
	}

	to, ok := Next(b.Status, ev)
	if !ok {
		if ev == EventCancel {
			return nil, types.InvalidState("Booking cannot be cancelled at this stage")
		}
		return nil, types.InvalidState(fmt.Sprintf("cannot %s a booking in status %s", strings.ReplaceAll(string(ev), "_", " "), b.Status))
	}
	u.To = to
	u.Track.Status = string(to)

	applied, err := s.repo.UpdateStatus(ctx, u)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrConflict
	}

	transitionsTotal.WithLabelValues(string(ev)).Inc()
	log.Printf("[BOOKING] action=%s booking_id=%s from=%s to=%s", ev, b.ID, u.From, to)

	b.Status = to
	b.StatusVersion++
	b.TrackingHistory = append(b.TrackingHistory, u.Track)
	b.UpdatedAt = u.Track.Timestamp
	if u.Payment != nil {
		b.PaymentInfo = u.Payment
	}
	if u.CancelReason != "" {
		b.CancelReason = u.CancelReason
	}
	s.publish(ctx, b, ev, u.From, to, u.Track)
	return b, nil
}

// Lookup tells station staff whether a booking is a pickup or a delivery for them.
func (s *Service) Lookup(ctx context.Context, bookingID, staffStationID types.ID) (*Booking, OperationType, error) {
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	switch staffStationID {
	case b.SourceStationID:
		return b, OperationPickup, nil
	case b.DestinationStationID:
		return b, OperationDelivery, nil
	default:
		return nil, "", types.Forbidden("booking does not belong to this station")
	}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidCode(code) {
		return nil, types.Validation("booking_code", "booking code is malformed")
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// CountByCustomer counts bookings that were not cancelled. It feeds the
// returning-customer discount.
func (s *Service) CountByCustomer(ctx context.Context, customerID types.ID) (int, error) {
	list, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range list {
		if b.Status != StatusCancelled {
			n++
		}
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, b *Booking, ev Event, from, to Status, track TrackingEvent) {
	if s.publisher == nil {
		return
	}
	change := StatusChange{
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		CustomerID:  b.CustomerID,
		Event:       ev,
		From:        from,
		To:          to,
		Location:    track.Location,
		OccurredAt:  track.Timestamp,
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		log.Printf("[BOOKING] action=publish booking_id=%s event=%s err=%v", b.ID, ev, err)
	}
}

func checkOwner(b *Booking, customerID types.ID) error {
	if customerID != "" && customerID != b.CustomerID {
		return types.Forbidden("booking belongs to another customer")
	}
	return nil
}

func newTransactionID() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// IsConflict reports lost optimistic updates and duplicate codes.
func IsConflict(err error) bool {
	return errors.Is(err, types.ErrConflict)
}
