package metrics

import (
	"fmt"

	"github.com/lending-indexer/internal/types"
)

const (
	// SecondsPerDay is the width of a daily bucket
	SecondsPerDay int64 = 86400
	// SecondsPerHour is the width of an hourly bucket
	SecondsPerHour int64 = 3600
)

// DayIndex returns the number of whole UTC days since the Unix epoch for the
// given event timestamp. Bucket identity derives only from event timestamps,
// never from wall-clock time.
func DayIndex(timestamp int64) int64 {
	return timestamp / SecondsPerDay
}

// HourOfDay returns the hour within the day, range 0-23
func HourOfDay(timestamp int64) int64 {
	return (timestamp - DayIndex(timestamp)*SecondsPerDay) / SecondsPerHour
}

// HourIndex returns a globally unique hourly bucket index. Hour-of-day alone
// would collide across days, so the index is dayIndex*24 + hourOfDay.
func HourIndex(timestamp int64) int64 {
	return DayIndex(timestamp)*24 + HourOfDay(timestamp)
}

// DailySnapshotID returns the stable id of the daily bucket containing timestamp
func DailySnapshotID(timestamp int64) string {
	return fmt.Sprintf("%d", DayIndex(timestamp))
}

// HourlySnapshotID returns the stable id of the hourly bucket containing
// timestamp, unique across days
func HourlySnapshotID(timestamp int64) string {
	return fmt.Sprintf("%d-%d", DayIndex(timestamp), HourOfDay(timestamp))
}

// BucketIndex returns the bucket index for the granularity: the day index for
// daily markers, the globally unique hour index for hourly markers
func BucketIndex(granularity types.Granularity, timestamp int64) int64 {
	if granularity == types.GranularityHourly {
		return HourIndex(timestamp)
	}
	return DayIndex(timestamp)
}

// ActiveAccountID returns the dedupe key for one address active in one
// bucket: granularity + "-" + address + "-" + bucket index
func ActiveAccountID(granularity types.Granularity, address string, timestamp int64) string {
	return fmt.Sprintf("%s-%s-%d", granularity, address, BucketIndex(granularity, timestamp))
}
