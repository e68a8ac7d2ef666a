package hypergate

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/opengrid/hypergate/pkg/hgid"
)

// SessionDirectory is the local presence directory: it locates a connected
// client by id and keeps the local online-friends cache current.
type SessionDirectory interface {
	Locate(userID uuid.UUID) (Session, bool)
	UpdateOnlineFriends(userID uuid.UUID, friends []string, online bool)
}

// Session is one connected local client.
type Session interface {
	SendOnline(friends []string)
	SendOffline(friends []string)
}

// PresenceNotifier fans a user's status change out to the foreign grids
// hosting their friends, one call per grid, and merges the confirmations
// into a single delivery to the local session.
type PresenceNotifier struct {
	fed      *Federation
	logger   *slog.Logger
	sessions SessionDirectory
}

func newPresenceNotifier(fed *Federation) *PresenceNotifier {
	return &PresenceNotifier{
		fed:      fed,
		logger:   fed.logger.With("component", "presence"),
		sessions: fed.config.sessions,
	}
}

type statusNotificationArgs struct {
	UserID  string   `xrpc:"userID"`
	Online  string   `xrpc:"online"`
	Friends []string `xrpc:"friends"`
}

type statusNotificationReply struct {
	Result  string   `xrpc:"result"`
	Friends []string `xrpc:"friends"`
}

// GroupByDomain buckets foreign friend identifiers by their inferred home
// endpoint. Purely local identifiers are dropped: they are not this
// layer's concern. The grouping is transient, built once per notify call
// and never persisted.
func GroupByDomain(friendIDs []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range friendIDs {
		endpoint, localID, _ := hgid.ParseUser(id)
		if endpoint == "" {
			continue
		}
		groups[endpoint] = append(groups[endpoint], localID)
	}
	return groups
}

// NotifyFriends groups `friendIDs` by home grid and runs Notify.
func (pn *PresenceNotifier) NotifyFriends(userID uuid.UUID, friendIDs []string, online bool) ([]string, error) {
	return pn.Notify(userID, GroupByDomain(friendIDs), online)
}

// Notify issues one status_notification call per domain group, skipping
// empty groups, and merges the ids each grid confirms into the returned
// list. The merged list, when non-empty, is delivered to the user's local
// session and mirrored into the online-friends cache.
//
// Stated invariant: every friend grouped under a domain is assumed
// reachable at that one service URL. A friend whose actual service URL
// diverges from their domain's is silently missed; detecting that would
// change interoperability with deployed grids.
//
// One domain's failure never blocks the others: its members simply do not
// appear in the merged list. The error aggregates per-domain failures for
// the caller's log and is non-nil even when a partial list was delivered.
func (pn *PresenceNotifier) Notify(userID uuid.UUID, friendsByDomain map[string][]string, online bool) ([]string, error) {
	var confirmed []string
	var errs *multierror.Error

	for domain, members := range friendsByDomain {
		if len(members) == 0 {
			continue
		}

		pn.fed.config.msink.IncrCounterWithLabels(MetricNotifyDomainCount, 1.0, pn.fed.config.metricLabels)

		cn, err := pn.fed.connector(domain)
		if err != nil {
			pn.domainFailed(domain, err, &errs)
			continue
		}

		args := statusNotificationArgs{
			UserID:  userID.String(),
			Online:  boolWord(online),
			Friends: members,
		}

		var reply statusNotificationReply
		if cerr := cn.rpc.call("status_notification", args, &reply); cerr != nil {
			pn.domainFailed(domain, cerr, &errs)
			continue
		}

		confirmed = append(confirmed, reply.Friends...)
	}

	if len(confirmed) > 0 && pn.sessions != nil {
		if session, found := pn.sessions.Locate(userID); found {
			if online {
				session.SendOnline(confirmed)
			} else {
				session.SendOffline(confirmed)
			}
		}
		pn.sessions.UpdateOnlineFriends(userID, confirmed, online)
	}

	pn.logger.Debug(
		"status fan-out done",
		LabelUserID.L(userID),
		"domains", len(friendsByDomain),
		"confirmed", len(confirmed),
	)
	return confirmed, errs.ErrorOrNil()
}

func (pn *PresenceNotifier) domainFailed(domain string, err error, errs **multierror.Error) {
	pn.fed.config.msink.IncrCounterWithLabels(MetricNotifyDomainErrorCount, 1.0, pn.fed.config.metricLabels)
	pn.logger.Warn("status notification skipped for domain", LabelEndpoint.L(domain), LabelError.L(err))
	*errs = multierror.Append(*errs, err)
}

func boolWord(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
