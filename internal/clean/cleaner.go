// Package clean applies the deterministic normalization and validation rule
// set to chunks of decoded trip rows. All statistics (median imputation, IQR
// outlier bounds) are chunk-local: identical rows can clean differently
// depending on which chunk they land in, and that boundary-dependence is an
// accepted property of the pipeline.
package clean

import (
	"math"
	"strings"
	"time"

	"github.com/triplake/triplake/pkg/types"
)

// missingNumericSentinel is the fill value for missing numeric fields other
// than passenger_count, which is imputed from the chunk median instead.
const missingNumericSentinel = -1.0

// missingStringSentinel is the fill value for missing string fields.
const missingStringSentinel = "UNKNOWN"

// Cleaner applies the cleaning rule set to one chunk at a time. A Cleaner is
// stateless across chunks and safe for concurrent use from different files.
type Cleaner struct{}

// New creates a Cleaner.
func New() *Cleaner {
	return &Cleaner{}
}

// Clean applies the rule set, in order, to one bounded chunk of raw rows:
// column normalization, temporal parsing, missing-value policy, duplicate
// removal, invalid-row filtering, IQR outlier removal, categorical
// normalization, integer coercion, and the derived trip duration. The rules
// assume each other's postconditions, so the order is load-bearing.
//
// Accepted rows come back with canonical column keys and typed values
// (time.Time, float64, types.NullInt, string). Dropped rows are counted in
// the returned tally, never silently discarded.
func (c *Cleaner) Clean(chunk []types.RawRow) ([]types.RawRow, Tally) {
	var tally Tally

	rows := c.normalize(chunk)
	c.fillMissing(rows)
	rows = c.dropDuplicates(rows, &tally)
	rows = c.dropInvalid(rows, &tally)
	rows = c.dropOutliers(rows, &tally)
	c.finalize(rows)

	return rows, tally
}

// normalize applies rules 1 and 2: canonical column names and temporal
// parsing. Unknown columns are ignored; unparseable timestamps become
// missing rather than failing the row.
func (c *Cleaner) normalize(chunk []types.RawRow) []types.RawRow {
	rows := make([]types.RawRow, 0, len(chunk))

	for _, raw := range chunk {
		row := make(types.RawRow, len(knownColumns))
		for name, v := range raw {
			canonical := NormalizeColumn(name)
			if _, ok := knownColumns[canonical]; !ok {
				continue
			}
			row[canonical] = v
		}

		for _, col := range timestampColumns {
			v, ok := row[col]
			if !ok {
				continue
			}
			if ts, parsed := parseTimestamp(v); parsed {
				row[col] = ts
			} else {
				delete(row, col)
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// fillMissing applies rule 3. passenger_count is imputed with the median of
// the non-missing passenger counts in this chunk; every other missing
// numeric gets the -1 sentinel and missing strings get "UNKNOWN". Numeric
// values are coerced to float64 here so later rules can assume it.
func (c *Cleaner) fillMissing(rows []types.RawRow) {
	var counts []float64
	for _, row := range rows {
		if f, ok := asFloat(row[ColPassengerCount]); ok {
			counts = append(counts, f)
		}
	}

	imputedCount := missingNumericSentinel
	if len(counts) > 0 {
		// The column is integer-typed; round the median before imputing.
		imputedCount = math.Round(median(counts))
	}

	for _, row := range rows {
		for _, col := range integerColumns {
			f, ok := asFloat(row[col])
			switch {
			case ok:
				row[col] = f
			case col == ColPassengerCount:
				row[col] = imputedCount
			default:
				row[col] = missingNumericSentinel
			}
		}

		for _, col := range floatColumns {
			if f, ok := asFloat(row[col]); ok {
				row[col] = f
			} else {
				row[col] = missingNumericSentinel
			}
		}

		for _, col := range stringColumns {
			if s, ok := asString(row[col]); ok {
				row[col] = s
			} else {
				row[col] = missingStringSentinel
			}
		}
	}
}

// dropDuplicates applies rule 4: rows identical across all fields within the
// chunk collapse to the first occurrence.
func (c *Cleaner) dropDuplicates(rows []types.RawRow, tally *Tally) []types.RawRow {
	seen := make(map[[2]uint64]struct{}, len(rows))
	kept := rows[:0]

	for _, row := range rows {
		fp := fingerprint(row)
		if _, dup := seen[fp]; dup {
			tally.Duplicate++
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, row)
	}

	return kept
}

// dropInvalid applies rule 5: non-positive distance or fare, or a pickup
// after its dropoff, disqualifies the row.
func (c *Cleaner) dropInvalid(rows []types.RawRow, tally *Tally) []types.RawRow {
	kept := rows[:0]

	for _, row := range rows {
		distance, _ := row[ColTripDistance].(float64)
		fare, _ := row[ColFareAmount].(float64)
		if distance <= 0 || fare <= 0 {
			tally.Invalid++
			continue
		}

		pickup, hasPickup := row[ColPickupTime].(time.Time)
		dropoff, hasDropoff := row[ColDropoffTime].(time.Time)
		if hasPickup && hasDropoff && pickup.After(dropoff) {
			tally.Invalid++
			continue
		}

		kept = append(kept, row)
	}

	return kept
}

// dropOutliers applies rule 6: IQR bounds over trip_distance and fare_amount
// computed within the chunk (over the rows that survived rules 4 and 5).
func (c *Cleaner) dropOutliers(rows []types.RawRow, tally *Tally) []types.RawRow {
	if len(rows) == 0 {
		return rows
	}

	distances := make([]float64, 0, len(rows))
	fares := make([]float64, 0, len(rows))
	for _, row := range rows {
		distances = append(distances, row[ColTripDistance].(float64))
		fares = append(fares, row[ColFareAmount].(float64))
	}

	distLo, distHi := iqrBounds(distances)
	fareLo, fareHi := iqrBounds(fares)

	kept := rows[:0]
	for _, row := range rows {
		distance := row[ColTripDistance].(float64)
		fare := row[ColFareAmount].(float64)
		if distance < distLo || distance > distHi || fare < fareLo || fare > fareHi {
			tally.Outlier++
			continue
		}
		kept = append(kept, row)
	}

	return kept
}

// finalize applies rules 7 through 9: categorical normalization, nullable
// integer coercion, and the derived trip duration in minutes.
func (c *Cleaner) finalize(rows []types.RawRow) {
	for _, row := range rows {
		// Rule 7: uppercase the flag; anything that is not Y/N is a
		// defined deterministic default, not a drop.
		flag, _ := row[ColStoreAndFwdFlag].(string)
		flag = strings.ToUpper(strings.TrimSpace(flag))
		if flag != "Y" && flag != "N" {
			flag = "N"
		}
		row[ColStoreAndFwdFlag] = flag

		// Rule 8: integer-typed columns become nullable ints. The -1
		// sentinel survives as a valid value.
		for _, col := range integerColumns {
			f, _ := row[col].(float64)
			row[col] = types.NewInt(int64(f))
		}

		// Rule 9: derived duration. Rule 5 already guarantees
		// pickup <= dropoff, so the result is never negative.
		pickup, hasPickup := row[ColPickupTime].(time.Time)
		dropoff, hasDropoff := row[ColDropoffTime].(time.Time)
		if hasPickup && hasDropoff {
			row[ColTripDuration] = dropoff.Sub(pickup).Minutes()
		}
	}
}
