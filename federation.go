package hypergate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-metrics"
)

const DefaultCallTimeout = 10 * time.Second
const DefaultCacheTTL = 60 * time.Second
const DefaultRegionSize uint32 = 256

// DefaultPlaceholderImage is the well-known "missing map tile" asset id
// every grid ships with.
var DefaultPlaceholderImage = uuid.MustParse("00000000-0000-0000-0000-000000000006")

const (
	RolePrimary Role = iota
	RoleSecondary
)

// Role states whether this instance is the process's primary federation
// layer. The composition root sets it explicitly at construction time.
type Role uint8

func (r Role) String() string {
	if r == RoleSecondary {
		return "secondary"
	}
	return "primary"
}

// Federation is the composition root of the outbound federation layer. It
// owns the connector cache shared by the asset router, the gatekeeper
// connector and the presence notifier.
type Federation struct {
	config config
	logger *slog.Logger

	conns *ExpiringCache[*Connector]

	assets     *AssetRouter
	gatekeeper *Gatekeeper
	presence   *PresenceNotifier
}

func Create(opts ...Option) (*Federation, error) {
	fed := &Federation{}

	fed.config.callTimeout = DefaultCallTimeout
	fed.config.cacheTTL = DefaultCacheTTL
	fed.config.regionSize = DefaultRegionSize
	fed.config.placeholderImage = DefaultPlaceholderImage

	for _, opt := range opts {
		err := opt(&fed.config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	// Logging implementations.
	if fed.config.logHandler != nil {
		fed.logger = slog.New(fed.config.logHandler)
	} else {
		fed.logger = slog.Default()
	}

	// Metrics implementations.
	if fed.config.msink == nil {
		fed.config.msink = metrics.Default()
	}

	fed.conns = NewExpiringCache[*Connector](
		fed.config.cacheTTL,
		fed.config.msink,
		append([]metrics.Label{LabelCache.M("connectors")}, fed.config.metricLabels...),
	)

	fed.assets = newAssetRouter(fed)
	fed.gatekeeper = newGatekeeper(fed)
	fed.presence = newPresenceNotifier(fed)

	fed.logger.Info("federation layer ready", "role", fed.config.role.String())
	return fed, nil
}

// Role reports whether this instance was wired as the primary federation
// layer or a secondary one.
func (fed *Federation) Role() Role {
	return fed.config.role
}

// Assets returns the federated asset router.
func (fed *Federation) Assets() *AssetRouter {
	return fed.assets
}

// Gatekeeper returns the grid-linking connector.
func (fed *Federation) Gatekeeper() *Gatekeeper {
	return fed.gatekeeper
}

// Presence returns the cross-domain presence notifier.
func (fed *Federation) Presence() *PresenceNotifier {
	return fed.presence
}

// connector returns the cached `Connector` for an endpoint, constructing
// it on first use. The reference is borrowed: valid for one operation,
// never to be retained past it.
func (fed *Federation) connector(endpoint string) (*Connector, error) {
	return fed.conns.Get(endpoint, func() (*Connector, error) {
		return newConnector(
			endpoint,
			fed.config.callTimeout,
			fed.config.msink,
			fed.config.metricLabels,
		)
	})
}
