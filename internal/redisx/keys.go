package redisx

import "time"

const (
	// Dedup fast-path webhook event gateway: dedup:{service}:{event_id}.
	// Best-effort saja; kebenaran tetap di constraint Postgres.
	KeyDedup = "dedup:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status":"...","total":"..."}
	KeyOrderStatus = "order_status:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
)
