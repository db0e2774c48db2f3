// README: Booking aggregate, status definitions and the lifecycle transition table.
package booking

import (
	"time"

	"travellite/internal/modules/pricing"
	"travellite/internal/types"
)

type Status string

const (
	StatusPendingPayment   Status = "pending_payment"
	StatusPaymentConfirmed Status = "payment_confirmed"
	StatusLuggageCollected Status = "luggage_collected"
	StatusInTransit        Status = "in_transit"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Event is a lifecycle trigger applied to a booking.
type Event string

const (
	EventCreate         Event = "create"
	EventConfirmPayment Event = "confirm_payment"
	EventCollectLuggage Event = "collect_luggage"
	EventDispatch       Event = "dispatch"
	EventDeliver        Event = "deliver"
	EventCancel         Event = "cancel"
)

// Transitions is the lifecycle as code: state × event → state.
// Anything absent is an invalid transition.
var Transitions = map[Status]map[Event]Status{
	StatusPendingPayment: {
		EventConfirmPayment: StatusPaymentConfirmed,
		EventCancel:         StatusCancelled,
	},
	StatusPaymentConfirmed: {
		EventCollectLuggage: StatusLuggageCollected,
		EventCancel:         StatusCancelled,
	},
	StatusLuggageCollected: {
		EventDispatch: StatusInTransit,
	},
	StatusInTransit: {
		EventDeliver: StatusDelivered,
	},
}

func Next(from Status, ev Event) (Status, bool) {
	to, ok := Transitions[from][ev]
	return to, ok
}

func CanTransition(from, to Status) bool {
	for _, next := range Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Tracking statuses. They mirror the booking status except for the intake event.
const (
	TrackBookingCreated = "booking_created"
)

type TrackingEvent struct {
	Status    string    `json:"status"`
	Location  types.ID  `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

type Angle string

const (
	AngleFront Angle = "front"
	AngleBack  Angle = "back"
	AngleLeft  Angle = "left"
	AngleRight Angle = "right"
)

// RequiredAngles is the complete photo set, in reporting order.
var RequiredAngles = []Angle{AngleFront, AngleBack, AngleLeft, AngleRight}

type Photo struct {
	Angle Angle  `json:"angle"`
	URL   string `json:"url"`
}

type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type PaymentInfo struct {
	Method        string      `json:"method"`
	TransactionID string      `json:"transaction_id"`
	Amount        types.Money `json:"amount"`
	PaidAt        time.Time   `json:"paid_at"`
}

type OperationType string

const (
	OperationPickup   OperationType = "pickup"
	OperationDelivery OperationType = "delivery"
)

type Booking struct {
	ID                   types.ID        `json:"id"`
	BookingCode          string          `json:"booking_code"`
	CustomerID           types.ID        `json:"customer_id"`
	SourceStationID      types.ID        `json:"source_station_id"`
	DestinationStationID types.ID        `json:"destination_station_id"`
	DistanceKm           float64         `json:"distance_km"`
	Quote                pricing.Quote   `json:"quote"`
	SecurityItems        []string        `json:"security_items"`
	ContactInfo          ContactInfo     `json:"contact_info"`
	LuggagePhotos        []Photo         `json:"luggage_photos"`
	Status               Status          `json:"status"`
	StatusVersion        int             `json:"-"`
	PaymentInfo          *PaymentInfo    `json:"payment_info,omitempty"`
	TrackingHistory      []TrackingEvent `json:"tracking_history"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (b *Booking) lastEvent() (TrackingEvent, bool) {
	if len(b.TrackingHistory) == 0 {
		return TrackingEvent{}, false
	}
	return b.TrackingHistory[len(b.TrackingHistory)-1], true
}

func (b *Booking) clone() *Booking {
	c := *b
	c.SecurityItems = append([]string(nil), b.SecurityItems...)
	c.LuggagePhotos = append([]Photo(nil), b.LuggagePhotos...)
	c.TrackingHistory = append([]TrackingEvent(nil), b.TrackingHistory...)
	if b.PaymentInfo != nil {
		p := *b.PaymentInfo
		c.PaymentInfo = &p
	}
	return &c
}

// StatusUpdate is one guarded transition handed to the repository. It is
// applied only if the stored status and version still match From/Version.
type StatusUpdate struct {
	BookingID    types.ID
	From         Status
	To           Status
	Version      int
	Track        TrackingEvent
	Payment      *PaymentInfo
	CancelReason string
}

// StatusChange is published after every committed transition.
type StatusChange struct {
	BookingID   types.ID  `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	CustomerID  types.ID  `json:"customer_id"`
	Event       Event     `json:"event"`
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to"`
	Location    types.ID  `json:"location,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
