// Package types provides core data types for Triplake.
package types

import "time"

// RawRow is a decoded source row before cleaning: a mapping from source
// column name (arbitrary case and spacing) to an untyped scalar. RawRows
// only live for the duration of one chunk.
type RawRow map[string]interface{}

// TripRecord is the canonical, validated trip record persisted to the store.
// Integer-typed fields use NullInt so that the -1 missing-value sentinel and
// a true NULL remain distinguishable in the database.
type TripRecord struct {
	// VendorID identifies the provider that supplied the record
	VendorID NullInt `json:"vendor_id"`

	// PickupTime is when the meter was engaged
	PickupTime time.Time `json:"tpep_pickup_datetime"`

	// DropoffTime is when the meter was disengaged
	DropoffTime time.Time `json:"tpep_dropoff_datetime"`

	// PassengerCount is imputed with the chunk median when missing
	PassengerCount NullInt `json:"passenger_count"`

	// TripDistance is the trip distance in miles, always > 0 once stored
	TripDistance float64 `json:"trip_distance"`

	// RateCodeID is the rate code in effect at the end of the trip
	RateCodeID NullInt `json:"ratecodeid"`

	// StoreAndFwdFlag is "Y" or "N"; anything else is coerced to "N"
	StoreAndFwdFlag string `json:"store_and_fwd_flag"`

	// PULocationID and DOLocationID are the pickup/dropoff taxi zones
	PULocationID NullInt `json:"pulocationid"`
	DOLocationID NullInt `json:"dolocationid"`

	// PaymentType signifies how the passenger paid
	PaymentType NullInt `json:"payment_type"`

	// Monetary fields; FareAmount is always > 0 once stored
	FareAmount           float64 `json:"fare_amount"`
	Extra                float64 `json:"extra"`
	MTATax               float64 `json:"mta_tax"`
	TipAmount            float64 `json:"tip_amount"`
	TollsAmount          float64 `json:"tolls_amount"`
	ImprovementSurcharge float64 `json:"improvement_surcharge"`
	TotalAmount          float64 `json:"total_amount"`
	CongestionSurcharge  float64 `json:"congestion_surcharge"`
	AirportFee           float64 `json:"airport_fee"`

	// TripDuration is the derived dropoff-minus-pickup duration in minutes
	TripDuration float64 `json:"trip_duration"`
}

// StoredTrip is a TripRecord plus the surrogate identifier assigned by the
// store at commit time. Identifiers are strictly increasing in commit order
// and never reused; they are the sole ordering key and pagination cursor.
type StoredTrip struct {
	ID int64 `json:"id"`
	TripRecord
}
