package store

// Timestamps are stored as INTEGER nanoseconds since the Unix epoch so that
// range predicates and the pickup-time index stay purely numeric. The CHECK
// constraints restate the storage contract at the database layer; a record
// that violates them fails its own transaction and nothing else.
const createTripsTableSQL = `
CREATE TABLE IF NOT EXISTS trips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id INTEGER,
	pickup_time INTEGER NOT NULL,
	dropoff_time INTEGER NOT NULL,
	passenger_count INTEGER,
	trip_distance REAL NOT NULL CHECK (trip_distance > 0),
	ratecodeid INTEGER,
	store_and_fwd_flag TEXT NOT NULL DEFAULT 'N',
	pulocationid INTEGER,
	dolocationid INTEGER,
	payment_type INTEGER,
	fare_amount REAL NOT NULL CHECK (fare_amount > 0),
	extra REAL NOT NULL DEFAULT 0,
	mta_tax REAL NOT NULL DEFAULT 0,
	tip_amount REAL NOT NULL DEFAULT 0,
	tolls_amount REAL NOT NULL DEFAULT 0,
	improvement_surcharge REAL NOT NULL DEFAULT 0,
	total_amount REAL NOT NULL DEFAULT 0,
	congestion_surcharge REAL NOT NULL DEFAULT 0,
	airport_fee REAL NOT NULL DEFAULT 0,
	trip_duration REAL NOT NULL DEFAULT 0,
	CHECK (pickup_time <= dropoff_time)
)`

const createPickupIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_trips_pickup_time ON trips (pickup_time)`

const insertTripSQL = `
INSERT INTO trips (
	vendor_id, pickup_time, dropoff_time, passenger_count, trip_distance,
	ratecodeid, store_and_fwd_flag, pulocationid, dolocationid, payment_type,
	fare_amount, extra, mta_tax, tip_amount, tolls_amount,
	improvement_surcharge, total_amount, congestion_surcharge, airport_fee,
	trip_duration
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTripsSQL = `
SELECT
	id, vendor_id, pickup_time, dropoff_time, passenger_count, trip_distance,
	ratecodeid, store_and_fwd_flag, pulocationid, dolocationid, payment_type,
	fare_amount, extra, mta_tax, tip_amount, tolls_amount,
	improvement_surcharge, total_amount, congestion_surcharge, airport_fee,
	trip_duration
FROM trips
WHERE id > ?`

// schemaSQL returns every DDL statement, in execution order.
func schemaSQL() []string {
	return []string{
		createTripsTableSQL,
		createPickupIndexSQL,
	}
}
