package hypergate

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricCacheHitCount          = []string{"hypergate", "cache", "hit", "count"}
	MetricCacheMissCount         = []string{"hypergate", "cache", "miss", "count"}
	MetricCacheEvictCount        = []string{"hypergate", "cache", "evict", "count"}
	MetricRPCOutCount            = []string{"hypergate", "rpc", "out", "count"}
	MetricRPCOutErrorCount       = []string{"hypergate", "rpc", "out", "error", "count"}
	MetricTileDownloadCount      = []string{"hypergate", "tile", "download", "count"}
	MetricTileHitCount           = []string{"hypergate", "tile", "hit", "count"}
	MetricNotifyDomainCount      = []string{"hypergate", "presence", "domain", "count"}
	MetricNotifyDomainErrorCount = []string{"hypergate", "presence", "domain", "error", "count"}
)

type TelemetryLabel string

var (
	LabelError      TelemetryLabel = "error"
	LabelEndpoint   TelemetryLabel = "endpoint"
	LabelMethod     TelemetryLabel = "method"
	LabelCache      TelemetryLabel = "cache"
	LabelAssetID    TelemetryLabel = "asset_id"
	LabelRegionID   TelemetryLabel = "region_id"
	LabelRegionName TelemetryLabel = "region_name"
	LabelUserID     TelemetryLabel = "user_id"
	LabelReason     TelemetryLabel = "reason"
	LabelDuration   TelemetryLabel = "duration"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}
