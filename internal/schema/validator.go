// Package schema converts cleaned rows into typed trip records and enforces
// the storage contract on each one. Validation is per row: a violation
// rejects that row only, never the chunk around it.
package schema

import (
	"time"

	"github.com/triplake/triplake/internal/clean"
	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/pkg/types"
)

// Validator checks cleaned rows against the trip schema and materializes the
// typed record the loader persists.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate converts a cleaned row into a TripRecord. Both timestamps must be
// present and typed; the cleaner's numeric invariants are re-checked here so
// a record that reaches the loader is always storable.
func (v *Validator) Validate(row types.RawRow) (*types.TripRecord, error) {
	pickup, ok := row[clean.ColPickupTime].(time.Time)
	if !ok {
		return nil, terrors.NewSchemaError(clean.ColPickupTime, "missing or untyped pickup timestamp")
	}
	dropoff, ok := row[clean.ColDropoffTime].(time.Time)
	if !ok {
		return nil, terrors.NewSchemaError(clean.ColDropoffTime, "missing or untyped dropoff timestamp")
	}
	if pickup.After(dropoff) {
		return nil, terrors.NewSchemaError(clean.ColPickupTime, "pickup timestamp after dropoff")
	}

	record := &types.TripRecord{
		PickupTime:  pickup,
		DropoffTime: dropoff,
	}

	var err error
	if record.TripDistance, err = floatField(row, clean.ColTripDistance); err != nil {
		return nil, err
	}
	if record.TripDistance <= 0 {
		return nil, terrors.NewSchemaError(clean.ColTripDistance, "trip distance must be positive")
	}
	if record.FareAmount, err = floatField(row, clean.ColFareAmount); err != nil {
		return nil, err
	}
	if record.FareAmount <= 0 {
		return nil, terrors.NewSchemaError(clean.ColFareAmount, "fare amount must be positive")
	}

	if record.Extra, err = floatField(row, clean.ColExtra); err != nil {
		return nil, err
	}
	if record.MTATax, err = floatField(row, clean.ColMTATax); err != nil {
		return nil, err
	}
	if record.TipAmount, err = floatField(row, clean.ColTipAmount); err != nil {
		return nil, err
	}
	if record.TollsAmount, err = floatField(row, clean.ColTollsAmount); err != nil {
		return nil, err
	}
	if record.ImprovementSurcharge, err = floatField(row, clean.ColImprovementSurcharge); err != nil {
		return nil, err
	}
	if record.TotalAmount, err = floatField(row, clean.ColTotalAmount); err != nil {
		return nil, err
	}
	if record.CongestionSurcharge, err = floatField(row, clean.ColCongestionSurcharge); err != nil {
		return nil, err
	}
	if record.AirportFee, err = floatField(row, clean.ColAirportFee); err != nil {
		return nil, err
	}
	if record.TripDuration, err = floatField(row, clean.ColTripDuration); err != nil {
		return nil, err
	}

	if record.VendorID, err = intField(row, clean.ColVendorID); err != nil {
		return nil, err
	}
	if record.PassengerCount, err = intField(row, clean.ColPassengerCount); err != nil {
		return nil, err
	}
	if record.RateCodeID, err = intField(row, clean.ColRateCodeID); err != nil {
		return nil, err
	}
	if record.PULocationID, err = intField(row, clean.ColPULocationID); err != nil {
		return nil, err
	}
	if record.DOLocationID, err = intField(row, clean.ColDOLocationID); err != nil {
		return nil, err
	}
	if record.PaymentType, err = intField(row, clean.ColPaymentType); err != nil {
		return nil, err
	}

	if flag, ok := row[clean.ColStoreAndFwdFlag].(string); ok {
		record.StoreAndFwdFlag = flag
	} else {
		record.StoreAndFwdFlag = "N"
	}

	return record, nil
}

func floatField(row types.RawRow, col string) (float64, error) {
	v, ok := row[col]
	if !ok {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, terrors.NewSchemaError(col, "expected numeric value")
	}
	return f, nil
}

func intField(row types.RawRow, col string) (types.NullInt, error) {
	v, ok := row[col]
	if !ok {
		return types.NullInt{}, nil
	}
	n, ok := v.(types.NullInt)
	if !ok {
		return types.NullInt{}, terrors.NewSchemaError(col, "expected integer value")
	}
	return n, nil
}
