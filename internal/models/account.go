package models

import "github.com/lending-indexer/internal/types"

// Account marks an address that has ever interacted with the protocol.
// Its existence is the fact; it carries no mutable state.
type Account struct {
	ID string `json:"id" db:"id"`
}

// ActiveAccount marks an address as active within one time bucket.
// ID is granularity + "-" + address + "-" + bucket index; creating it is the
// sole trigger for incrementing the matching active-user counter.
type ActiveAccount struct {
	ID          string            `json:"id" db:"id"`
	AccountID   string            `json:"accountId" db:"account_id"`
	Granularity types.Granularity `json:"granularity" db:"granularity"`
	BucketIndex int64             `json:"bucketIndex" db:"bucket_index"`
}
