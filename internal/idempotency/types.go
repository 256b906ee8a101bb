package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// DefaultTTL is how long a key is remembered when no window is configured.
const DefaultTTL = 48 * time.Hour

// Lease is how long an IN_PROGRESS claim is honoured before a retry may take it over.
// It outlives any single API invocation.
const Lease = time.Minute

// IdempotencyRecord is the shape persisted in the idempotency DynamoDB table.
// The same table holds client request keys (POST /orders) and consumer dedupe markers
// (SQS message ids), distinguished by Scope.
type IdempotencyRecord struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Scope          string    `dynamodbav:"scope,omitempty"`
	Status         string    `dynamodbav:"status"`
	Fingerprint    string    `dynamodbav:"fingerprint,omitempty"` // hash of the request body
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 201
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"`                 // TTL epoch seconds
	LeaseExpiresAt int64     `dynamodbav:"lease_expires_at,omitempty"` // epoch seconds, IN_PROGRESS only
	Note           string    `dynamodbav:"note,omitempty"`
}

// Expired reports whether the record is past its TTL. DynamoDB deletes expired items
// lazily, so reads must not trust their presence. The boundary second counts as expired,
// matching the claim condition.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}

// LeaseExpired reports an IN_PROGRESS claim whose owner has stopped renewing it.
func (r IdempotencyRecord) LeaseExpired(now time.Time) bool {
	return r.Status == StatusInProgress && r.LeaseExpiresAt > 0 && now.Unix() >= r.LeaseExpiresAt
}
