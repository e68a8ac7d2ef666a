package hypergate

import (
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"
)

// Connector owns everything needed to talk to one foreign grid endpoint.
// Connectors are exclusively owned by the `Federation`'s cache; callers
// borrow one for the duration of a single operation and must not retain
// it. Map tile URLs are not bound to any endpoint, so raw tile fetches
// live on the gatekeeper's own HTTP client instead.
type Connector struct {
	endpoint string
	rpc      *rpcClient

	// opLk serializes store/exists traffic against this endpoint. It is
	// per-connector on purpose: operations against different grids never
	// contend with each other.
	opLk sync.Mutex
}

// newConnector does no network I/O: it only validates the endpoint and
// builds the client, so it is safe to run under the cache lock.
func newConnector(endpoint string, timeout time.Duration, msink metrics.MetricSink, labels []metrics.Label) (*Connector, error) {
	rpc, err := newRPCClient(
		endpoint,
		timeout,
		msink,
		append([]metrics.Label{LabelEndpoint.M(endpoint)}, labels...),
	)
	if err != nil {
		return nil, err
	}

	return &Connector{
		endpoint: endpoint,
		rpc:      rpc,
	}, nil
}

// Endpoint returns the base URL this connector is bound to.
func (cn *Connector) Endpoint() string {
	return cn.endpoint
}
