// `hypergate` is the outbound federation core of a multi-grid virtual world:
// it decides which grid owns an identifier, keeps a warm `Connector` per
// foreign endpoint, and performs the cross-grid calls (assets, region
// linking, presence) with bounded time and well-defined failure semantics.
//
// ## How it works
//
// Grids interoperate by exchanging *foreign identifiers*: a bare UUID is
// local, while `uuid;https://grid.example:8002/` embeds the owning grid's
// public endpoint. `pkg/hgid` splits those without ever failing on malformed
// input, so classification can run on attacker-controlled strings.
//
// A `Federation` is the composition root. It owns one `ExpiringCache` of
// `Connector`s keyed by endpoint URL: the first caller referencing an
// endpoint constructs its connector (cheap, no I/O), everyone else borrows
// the cached instance until it sits unused past the TTL. The three service
// facades share that cache:
//
//   - `AssetRouter` mirrors a plain asset store, but serves foreign ids only,
//     batching existence checks so N ids spanning K grids cost K round trips.
//   - `Gatekeeper` performs the grid-linking handshake (`link_region`,
//     `get_region`) and caches foreign map tiles on disk as local assets.
//   - `PresenceNotifier` groups a user's friends by home grid and sends one
//     status notification per grid, merging whatever comes back.
//
// ## Design Principles
//
// The federation wire protocol is fixed by the independently operated grids
// already deployed: XML-RPC over HTTP POST with flat string-keyed replies,
// plus a plain HTTP GET for map tiles. We keep the wire as-is but decode
// into one explicit struct per remote method, defaulting field-by-field
// rather than rejecting partial replies.
//
// Nothing in this package throws across its boundary. A foreign asset that
// cannot be fetched is "not found"; a link attempt that fails carries a
// short reason string; a grid that refuses a presence call only shrinks the
// online list. Callers on the scene-loading hot path must never see a fault
// they did not ask for.
package hypergate
