package hypergate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-metrics"

	"github.com/opengrid/hypergate/pkg/xrpc"
)

// Replies larger than this are cut off and classified as malformed. Asset
// payloads are the largest legitimate answers, well under this bound.
const maxReplyBytes = 64 << 20

// rpcClient performs single remote calls against one endpoint with a fixed
// upper bound on the whole exchange, headers and body both. It does not
// retry: each caller decides whether a failed call is worth a second
// attempt.
type rpcClient struct {
	endpoint string
	httpc    *http.Client

	msink  metrics.MetricSink
	labels []metrics.Label
}

// newRPCClient does no network I/O; it only validates the endpoint and
// builds the HTTP client.
func newRPCClient(endpoint string, timeout time.Duration, msink metrics.MetricSink, labels []metrics.Label) (*rpcClient, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrEndpointInvalid
	}

	if timeout == 0 {
		timeout = DefaultCallTimeout
	}
	if msink == nil {
		msink = metrics.Default()
	}

	httpc := cleanhttp.DefaultPooledClient()
	httpc.Timeout = timeout

	return &rpcClient{
		endpoint: endpoint,
		httpc:    httpc,
		msink:    msink,
		labels:   labels,
	}, nil
}

// call issues one request and folds every possible failure into the
// `CallError` taxonomy. A nil return means `reply` holds a decoded answer.
// No panic or unclassified error crosses this boundary.
func (rc *rpcClient) call(method string, args any, reply any) *CallError {
	labels := append([]metrics.Label{LabelMethod.M(method)}, rc.labels...)
	rc.msink.IncrCounterWithLabels(MetricRPCOutCount, 1.0, labels)

	cerr := rc.exchange(method, args, reply)
	if cerr != nil {
		rc.msink.IncrCounterWithLabels(
			MetricRPCOutErrorCount,
			1.0,
			append(labels, LabelError.M(cerr.Kind.String())),
		)
	}
	return cerr
}

func (rc *rpcClient) exchange(method string, args any, reply any) *CallError {
	body, err := xrpc.EncodeCall(method, args)
	if err != nil {
		return rc.failure(FailMalformedReply, method, err.Error())
	}

	req, err := http.NewRequest(http.MethodPost, rc.endpoint, bytes.NewReader(body))
	if err != nil {
		return rc.failure(FailTransport, method, err.Error())
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := rc.httpc.Do(req)
	if err != nil {
		return rc.failure(FailTransport, method, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return rc.failure(FailTransport, method, fmt.Sprintf("endpoint answered %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return rc.failure(FailTransport, method, err.Error())
	}

	if err := xrpc.DecodeResponse(data, reply); err != nil {
		var fault *xrpc.Fault
		if errors.As(err, &fault) {
			return rc.failure(FailRemoteFault, method, fault.String)
		}
		return rc.failure(FailMalformedReply, method, err.Error())
	}
	return nil
}

func (rc *rpcClient) failure(kind FailureKind, method, reason string) *CallError {
	return &CallError{
		Kind:     kind,
		Endpoint: rc.endpoint,
		Method:   method,
		Reason:   reason,
	}
}
