package tablesync

import (
	"context"
	"time"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/differ"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/store"
)

// BucketField is the field that carries the hour bucket of a posted row.
const BucketField = "hour_bucket"

// HourBucket returns the UTC hour slot t falls in, e.g. "2024-01-12T09".
func HourBucket(t time.Time) string {
	return t.UTC().Format(constants.HourBucketFormat)
}

// PostOnce writes fields into table unless a row for bucket already exists
// there. The check runs against the destination, so concurrent processes
// posting the same hour converge on one row in the common case. It reports
// whether this call wrote the row.
func PostOnce(ctx context.Context, st store.Store, table, bucket string, fields store.Fields) (bool, error) {
	logger := logging.FromContext(logging.WithTable(ctx, table))

	rows, err := st.List(ctx, table)
	if err != nil {
		return false, errors.WrapResource("list", table, "", err)
	}
	for _, r := range rows {
		if differ.Equal(r.Fields[BucketField], bucket) {
			logger.Debug().Str("bucket", bucket).Str("record_id", r.ID).Msg("Bucket already posted")
			return false, nil
		}
	}

	row := fields.Clone()
	row[BucketField] = bucket
	if _, err := st.Create(ctx, table, row); err != nil {
		return false, &errors.SyncRowError{Table: table, Op: "create", Key: bucket, Err: err}
	}
	logger.Info().Str("bucket", bucket).Msg("Bucket posted")
	return true, nil
}
