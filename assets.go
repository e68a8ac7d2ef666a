package hypergate

import (
	"log/slog"

	"github.com/opengrid/hypergate/pkg/hgid"
)

// Asset is the wire-stable asset record exchanged between grids.
type Asset struct {
	ID    string
	Name  string
	Type  int
	Flags int
	Data  []byte
}

// AssetMetadata describes an asset without its payload.
type AssetMetadata struct {
	ID          string
	Name        string
	Type        int
	ContentType string
	SHA256      string
	Local       bool
	Temporary   bool
}

// AssetRouter implements the asset store contract for foreign identifiers
// so that local and federated lookups are interchangeable to callers. It
// only serves foreign ids: a bare local id means the caller has already
// tried (or should try) the local store, and every answer here is nil.
//
// This router sits on the scene-loading hot path. Whatever goes wrong,
// parsing, connector construction or the remote call itself, the answer
// degrades to nil/false/empty with a log line. It never panics and never
// returns an error.
type AssetRouter struct {
	fed    *Federation
	logger *slog.Logger
}

func newAssetRouter(fed *Federation) *AssetRouter {
	return &AssetRouter{
		fed:    fed,
		logger: fed.logger.With("component", "assets"),
	}
}

type getAssetArgs struct {
	ID string `xrpc:"id"`
}

type getAssetReply struct {
	Result string `xrpc:"result"`
	ID     string `xrpc:"id"`
	Name   string `xrpc:"name"`
	Type   string `xrpc:"type"`
	Flags  string `xrpc:"flags"`
	Data   []byte `xrpc:"data"`
}

type getAssetMetadataReply struct {
	Result      string `xrpc:"result"`
	ID          string `xrpc:"id"`
	Name        string `xrpc:"name"`
	Type        string `xrpc:"type"`
	ContentType string `xrpc:"content_type"`
	SHA256      string `xrpc:"sha256"`
	Local       string `xrpc:"local"`
	Temporary   string `xrpc:"temporary"`
}

type assetsExistArgs struct {
	IDs []string `xrpc:"ids"`
}

type assetsExistReply struct {
	Exist []string `xrpc:"exist"`
}

type storeAssetArgs struct {
	ID    string `xrpc:"id"`
	Name  string `xrpc:"name"`
	Type  string `xrpc:"type"`
	Flags string `xrpc:"flags"`
	Data  []byte `xrpc:"data"`
}

type storeAssetReply struct {
	Result string `xrpc:"result"`
	ID     string `xrpc:"id"`
}

// Get fetches a foreign asset from its owning grid. Local or unparseable
// ids, and any remote failure, come back as nil.
func (ar *AssetRouter) Get(id string) *Asset {
	return ar.fetch(id)
}

// GetCached is the same routing as Get against the remote's cache-friendly
// read path. Federated assets are immutable, so a full fetch is an
// acceptable stand-in and keeps the remote method set small.
func (ar *AssetRouter) GetCached(id string) *Asset {
	return ar.fetch(id)
}

func (ar *AssetRouter) fetch(id string) *Asset {
	endpoint, localID := hgid.ParseForeign(id)
	if endpoint == "" {
		return nil
	}

	cn, err := ar.fed.connector(endpoint)
	if err != nil {
		ar.logger.Warn("no connector for asset fetch", LabelEndpoint.L(endpoint), LabelError.L(err))
		return nil
	}

	var reply getAssetReply
	if cerr := cn.rpc.call("get_asset", getAssetArgs{ID: localID}, &reply); cerr != nil {
		ar.logger.Warn("foreign asset fetch failed", LabelAssetID.L(id), LabelReason.L(cerr.Reason))
		return nil
	}
	if !wireBool(reply.Result, reply.ID != "") {
		return nil
	}

	return &Asset{
		ID:    localID,
		Name:  reply.Name,
		Type:  wireInt(reply.Type, 0),
		Flags: wireInt(reply.Flags, 0),
		Data:  reply.Data,
	}
}

// GetMetadata fetches a foreign asset's metadata only.
func (ar *AssetRouter) GetMetadata(id string) *AssetMetadata {
	endpoint, localID := hgid.ParseForeign(id)
	if endpoint == "" {
		return nil
	}

	cn, err := ar.fed.connector(endpoint)
	if err != nil {
		ar.logger.Warn("no connector for metadata fetch", LabelEndpoint.L(endpoint), LabelError.L(err))
		return nil
	}

	var reply getAssetMetadataReply
	if cerr := cn.rpc.call("get_asset_metadata", getAssetArgs{ID: localID}, &reply); cerr != nil {
		ar.logger.Warn("foreign metadata fetch failed", LabelAssetID.L(id), LabelReason.L(cerr.Reason))
		return nil
	}
	if !wireBool(reply.Result, reply.ID != "") {
		return nil
	}

	return &AssetMetadata{
		ID:          localID,
		Name:        reply.Name,
		Type:        wireInt(reply.Type, 0),
		ContentType: reply.ContentType,
		SHA256:      reply.SHA256,
		Local:       wireBool(reply.Local, false),
		Temporary:   wireBool(reply.Temporary, false),
	}
}

// AssetsExist answers an existence check per input position. Ids are
// grouped by inferred endpoint and each group costs exactly one batched
// remote call: K endpoints means K round trips regardless of how many ids
// were asked about. Local and unparseable ids keep their default `false`
// slot, as does every member of a group whose call fails.
func (ar *AssetRouter) AssetsExist(ids []string) []bool {
	results := make([]bool, len(ids))

	type domainGroup struct {
		localIDs []string
		slots    []int
	}
	groups := make(map[string]*domainGroup)
	for i, id := range ids {
		endpoint, localID := hgid.ParseForeign(id)
		if endpoint == "" {
			continue
		}
		group, has := groups[endpoint]
		if !has {
			group = &domainGroup{}
			groups[endpoint] = group
		}
		group.localIDs = append(group.localIDs, localID)
		group.slots = append(group.slots, i)
	}

	for endpoint, group := range groups {
		cn, err := ar.fed.connector(endpoint)
		if err != nil {
			ar.logger.Warn("no connector for existence check", LabelEndpoint.L(endpoint), LabelError.L(err))
			continue
		}

		var reply assetsExistReply
		cn.opLk.Lock()
		cerr := cn.rpc.call("assets_exist", assetsExistArgs{IDs: group.localIDs}, &reply)
		cn.opLk.Unlock()
		if cerr != nil {
			ar.logger.Warn("existence check failed", LabelEndpoint.L(endpoint), LabelReason.L(cerr.Reason))
			continue
		}

		for j, slot := range group.slots {
			if j < len(reply.Exist) {
				results[slot] = wireBool(reply.Exist[j], false)
			}
		}
	}

	return results
}

// Store pushes an asset to the grid embedded in the asset's own id. The id
// is rewritten to its bare local form before the transfer, so the remote
// grid stores it under an identifier it owns. Returns the stored id, or ""
// for local ids and on any failure.
//
// Stores to the same endpoint serialize on the connector's lock; stores to
// different endpoints proceed independently.
func (ar *AssetRouter) Store(a *Asset) string {
	if a == nil {
		return ""
	}

	endpoint, localID := hgid.ParseForeign(a.ID)
	if endpoint == "" {
		return ""
	}

	cn, err := ar.fed.connector(endpoint)
	if err != nil {
		ar.logger.Warn("no connector for asset store", LabelEndpoint.L(endpoint), LabelError.L(err))
		return ""
	}

	args := storeAssetArgs{
		ID:    localID,
		Name:  a.Name,
		Type:  itoa(a.Type),
		Flags: itoa(a.Flags),
		Data:  a.Data,
	}

	var reply storeAssetReply
	cn.opLk.Lock()
	cerr := cn.rpc.call("store_asset", args, &reply)
	cn.opLk.Unlock()
	if cerr != nil {
		ar.logger.Warn("foreign asset store failed", LabelAssetID.L(a.ID), LabelReason.L(cerr.Reason))
		return ""
	}
	if !wireBool(reply.Result, reply.ID != "") {
		return ""
	}
	if reply.ID != "" {
		return reply.ID
	}
	return localID
}

// Delete always reports false: federated assets are immutable from the
// consuming grid's point of view. This is policy, not a stub.
func (ar *AssetRouter) Delete(id string) bool {
	return false
}

// UpdateContent always reports false, for the same immutability policy as
// Delete.
func (ar *AssetRouter) UpdateContent(id string, data []byte) bool {
	return false
}
