package hypergate

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-metrics"
)

type config struct {
	logHandler   slog.Handler
	msink        metrics.MetricSink
	metricLabels []metrics.Label

	callTimeout time.Duration
	cacheTTL    time.Duration

	tileDir          string
	placeholderImage uuid.UUID
	regionSize       uint32

	role Role

	assetStore AssetStore
	imageCodec ImageCodec
	sessions   SessionDirectory
}

// Option to pass to `Create`
type Option func(*config) error

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted by
// the federation layer.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the
// `Federation`.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = labels
		return nil
	}
}

// WithCallTimeout controls how much time we are willing to wait for a
// foreign grid to answer a single remote call. There is no retry and no
// mid-flight cancellation: the timeout is the only bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout == 0 {
			timeout = DefaultCallTimeout
		}
		c.callTimeout = timeout
		return nil
	}
}

// WithCacheTTL controls how long an unused `Connector` stays in the cache
// before it is eligible for eviction.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl == 0 {
			ttl = DefaultCacheTTL
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithTileDir sets the directory where downloaded map tiles are persisted.
// A tile written there is treated as immutable and never re-fetched.
func WithTileDir(dir string) Option {
	return func(c *config) error {
		c.tileDir = dir
		return nil
	}
}

// WithPlaceholderImage sets the asset id returned when a map tile cannot be
// fetched, decoded or stored, so region linking can proceed with a
// "missing image" placeholder instead of aborting.
func WithPlaceholderImage(id uuid.UUID) Option {
	return func(c *config) error {
		c.placeholderImage = id
		return nil
	}
}

// WithDefaultRegionSize sets the region size assumed when a foreign grid's
// reply omits `size_x`/`size_y`.
func WithDefaultRegionSize(size uint32) Option {
	return func(c *config) error {
		if size == 0 {
			size = DefaultRegionSize
		}
		c.regionSize = size
		return nil
	}
}

// WithRole marks this instance as the process's primary federation layer or
// a secondary one. The composition root decides; there is no implicit
// "first constructed wins".
func WithRole(role Role) Option {
	return func(c *config) error {
		c.role = role
		return nil
	}
}

// WithAssetStore injects the local asset store used to persist fetched map
// tiles as local assets.
func WithAssetStore(store AssetStore) Option {
	return func(c *config) error {
		c.assetStore = store
		return nil
	}
}

// WithImageCodec injects the codec used to re-encode downloaded map tiles
// into the platform's internal image format.
func WithImageCodec(codec ImageCodec) Option {
	return func(c *config) error {
		c.imageCodec = codec
		return nil
	}
}

// WithSessionDirectory injects the local presence directory used to deliver
// merged online/offline friend lists to client sessions.
func WithSessionDirectory(dir SessionDirectory) Option {
	return func(c *config) error {
		c.sessions = dir
		return nil
	}
}
