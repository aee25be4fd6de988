package clean

import "strings"

// Canonical column names for the trips table. Cleaned rows use these keys;
// anything else in a source row is ignored.
const (
	ColVendorID             = "vendor_id"
	ColPickupTime           = "tpep_pickup_datetime"
	ColDropoffTime          = "tpep_dropoff_datetime"
	ColPassengerCount       = "passenger_count"
	ColTripDistance         = "trip_distance"
	ColRateCodeID           = "ratecodeid"
	ColStoreAndFwdFlag      = "store_and_fwd_flag"
	ColPULocationID         = "pulocationid"
	ColDOLocationID         = "dolocationid"
	ColPaymentType          = "payment_type"
	ColFareAmount           = "fare_amount"
	ColExtra                = "extra"
	ColMTATax               = "mta_tax"
	ColTipAmount            = "tip_amount"
	ColTollsAmount          = "tolls_amount"
	ColImprovementSurcharge = "improvement_surcharge"
	ColTotalAmount          = "total_amount"
	ColCongestionSurcharge  = "congestion_surcharge"
	ColAirportFee           = "airport_fee"
	ColTripDuration         = "trip_duration"
)

// timestampColumns are parsed by the temporal rule.
var timestampColumns = []string{ColPickupTime, ColDropoffTime}

// integerColumns are coerced to a nullable-integer representation after the
// sentinel fill, so -1 and a true NULL stay distinguishable in the store.
var integerColumns = []string{
	ColVendorID,
	ColPassengerCount,
	ColRateCodeID,
	ColPULocationID,
	ColDOLocationID,
	ColPaymentType,
}

// floatColumns get the -1 missing-value sentinel.
var floatColumns = []string{
	ColTripDistance,
	ColFareAmount,
	ColExtra,
	ColMTATax,
	ColTipAmount,
	ColTollsAmount,
	ColImprovementSurcharge,
	ColTotalAmount,
	ColCongestionSurcharge,
	ColAirportFee,
}

// stringColumns get the "UNKNOWN" missing-value sentinel.
var stringColumns = []string{ColStoreAndFwdFlag}

// fingerprintColumns is the fixed iteration order for duplicate detection.
var fingerprintColumns = buildFingerprintColumns()

func buildFingerprintColumns() []string {
	cols := make([]string, 0, 19)
	cols = append(cols, timestampColumns...)
	cols = append(cols, integerColumns...)
	cols = append(cols, floatColumns...)
	cols = append(cols, stringColumns...)
	return cols
}

// columnAliases maps normalized source names to canonical names where the
// upstream header differs (e.g. "VendorID" normalizes to "vendorid").
var columnAliases = map[string]string{
	"vendorid": ColVendorID,
}

// knownColumns is the set of canonical column names accepted from a source row.
var knownColumns = buildKnownColumns()

func buildKnownColumns() map[string]struct{} {
	set := make(map[string]struct{})
	for _, cols := range [][]string{timestampColumns, integerColumns, floatColumns, stringColumns} {
		for _, c := range cols {
			set[c] = struct{}{}
		}
	}
	return set
}

// NormalizeColumn lower-cases a source column name and replaces whitespace
// with underscores, then resolves known aliases.
func NormalizeColumn(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.Join(strings.Fields(normalized), "_")
	if canonical, ok := columnAliases[normalized]; ok {
		return canonical
	}
	return normalized
}
