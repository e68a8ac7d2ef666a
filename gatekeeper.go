package hypergate

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	lru "github.com/hashicorp/golang-lru/v2"
)

// reasonUnreachable is shown to administrators when a foreign gatekeeper
// cannot be contacted at all. Existing tooling greps for this exact string.
const reasonUnreachable = "Error contacting remote server"

const reasonNotFound = "The teleport destination could not be found."

const tileMemoSize = 512

// assetTypeTexture is the platform's asset type code for textures.
const assetTypeTexture = 0

// AssetStore is the local grid's asset store, consumed to persist fetched
// map tiles as local assets.
type AssetStore interface {
	Get(id string) (*Asset, error)
	Store(a *Asset) (string, error)
}

// ImageCodec decodes downloaded tile bytes and re-encodes them into the
// platform's internal image format.
type ImageCodec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image) ([]byte, error)
}

// Gatekeeper implements the grid-linking handshake against foreign grids'
// gatekeeper services: link a region by name, resolve a linked region's
// current descriptor, and mirror a region's map tile as a local asset.
type Gatekeeper struct {
	fed    *Federation
	logger *slog.Logger

	store AssetStore
	codec ImageCodec

	tileDir     string
	placeholder uuid.UUID
	regionSize  uint32

	httpc *http.Client

	// tileLk covers the whole check-then-write sequence so two callers
	// never download the same tile at once. Coarse (one lock for every
	// tile): tile writes are rare next to reads.
	tileLk   sync.Mutex
	tileMemo *lru.Cache[uuid.UUID, uuid.UUID]
}

func newGatekeeper(fed *Federation) *Gatekeeper {
	httpc := cleanhttp.DefaultPooledClient()
	httpc.Timeout = fed.config.callTimeout

	// Error only fires on a non-positive size.
	memo, _ := lru.New[uuid.UUID, uuid.UUID](tileMemoSize)

	return &Gatekeeper{
		fed:         fed,
		logger:      fed.logger.With("component", "gatekeeper"),
		store:       fed.config.assetStore,
		codec:       fed.config.imageCodec,
		tileDir:     fed.config.tileDir,
		placeholder: fed.config.placeholderImage,
		regionSize:  fed.config.regionSize,
		httpc:       httpc,
		tileMemo:    memo,
	}
}

type linkRegionArgs struct {
	RegionName string `xrpc:"region_name"`
}

type linkRegionReply struct {
	Result       string `xrpc:"result"`
	UUID         string `xrpc:"uuid"`
	Handle       string `xrpc:"handle"`
	RegionImage  string `xrpc:"region_image"`
	ExternalName string `xrpc:"external_name"`
	SizeX        string `xrpc:"size_x"`
	SizeY        string `xrpc:"size_y"`
}

type getRegionArgs struct {
	RegionUUID   string `xrpc:"region_uuid"`
	AgentUUID    string `xrpc:"agent_uuid"`
	AgentHomeURI string `xrpc:"agent_home_uri"`
}

type getRegionReply struct {
	Result      string `xrpc:"result"`
	UUID        string `xrpc:"uuid"`
	Handle      string `xrpc:"handle"`
	RegionName  string `xrpc:"region_name"`
	X           string `xrpc:"x"`
	Y           string `xrpc:"y"`
	SizeX       string `xrpc:"size_x"`
	SizeY       string `xrpc:"size_y"`
	ServerURI   string `xrpc:"server_uri"`
	RegionImage string `xrpc:"region_image"`
	Message     string `xrpc:"message"`
}

// LinkRegion asks the foreign grid at `gatekeeperURI` to link the region
// named `regionName`. A transport-level failure yields OK=false with
// `reasonUnreachable` and every out field at its safe default; a remote
// fault carries the endpoint's fault string. On success the reply is
// decoded defensively: any absent field keeps its default, with the
// region size falling back to the platform's standard size.
func (gk *Gatekeeper) LinkRegion(gatekeeperURI, regionName string) LinkResult {
	result := LinkResult{
		SizeX: gk.regionSize,
		SizeY: gk.regionSize,
	}

	cn, err := gk.fed.connector(gatekeeperURI)
	if err != nil {
		gk.logger.Warn("no connector for link_region", LabelEndpoint.L(gatekeeperURI), LabelError.L(err))
		result.Reason = reasonUnreachable
		return result
	}

	var reply linkRegionReply
	if cerr := cn.rpc.call("link_region", linkRegionArgs{RegionName: regionName}, &reply); cerr != nil {
		gk.logger.Warn(
			"link_region failed",
			LabelEndpoint.L(gatekeeperURI),
			LabelRegionName.L(regionName),
			LabelReason.L(cerr.Reason),
		)
		if cerr.Kind == FailRemoteFault {
			result.Reason = cerr.Reason
		} else {
			result.Reason = reasonUnreachable
		}
		return result
	}

	result.RegionID = wireUUID(reply.UUID, uuid.Nil)
	if !wireBool(reply.Result, result.RegionID != uuid.Nil) {
		result.Reason = "Remote grid refused to link the region"
		return result
	}

	result.OK = true
	result.Handle = wireUint64(reply.Handle, 0)
	result.ExternalName = reply.ExternalName
	result.ImageURL = reply.RegionImage
	result.SizeX = wireUint32(reply.SizeX, gk.regionSize)
	result.SizeY = wireUint32(reply.SizeY, gk.regionSize)
	return result
}

// GetHyperlinkRegion resolves a previously linked region's current
// descriptor. The returned message is the reply's own message when it
// carries one, a fixed not-found text when the reply reports failure, and
// "" on full success. A nil descriptor always comes with a message.
func (gk *Gatekeeper) GetHyperlinkRegion(gatekeeperURI string, regionID, agentID uuid.UUID, agentHomeURI string) (*RegionDescriptor, string) {
	cn, err := gk.fed.connector(gatekeeperURI)
	if err != nil {
		gk.logger.Warn("no connector for get_region", LabelEndpoint.L(gatekeeperURI), LabelError.L(err))
		return nil, reasonUnreachable
	}

	args := getRegionArgs{
		RegionUUID:   regionID.String(),
		AgentUUID:    agentID.String(),
		AgentHomeURI: agentHomeURI,
	}

	var reply getRegionReply
	if cerr := cn.rpc.call("get_region", args, &reply); cerr != nil {
		gk.logger.Warn(
			"get_region failed",
			LabelEndpoint.L(gatekeeperURI),
			LabelRegionID.L(regionID),
			LabelReason.L(cerr.Reason),
		)
		if cerr.Kind == FailRemoteFault {
			return nil, cerr.Reason
		}
		return nil, reasonUnreachable
	}

	if !wireBool(reply.Result, reply.UUID != "") {
		if reply.Message != "" {
			return nil, reply.Message
		}
		return nil, reasonNotFound
	}

	desc := &RegionDescriptor{
		RegionID:    wireUUID(reply.UUID, regionID),
		Handle:      wireUint64(reply.Handle, 0),
		Name:        reply.RegionName,
		LocX:        wireUint32(reply.X, 0),
		LocY:        wireUint32(reply.Y, 0),
		SizeX:       wireUint32(reply.SizeX, gk.regionSize),
		SizeY:       wireUint32(reply.SizeY, gk.regionSize),
		ServerURI:   reply.ServerURI,
		MapImageURL: reply.RegionImage,
	}
	return desc, reply.Message
}

// GetMapImage mirrors a foreign region's map tile as a local asset and
// returns the local asset id. The tile is cached on disk under a filename
// derived from the region id and treated as immutable afterwards: the
// second call for the same region performs no download (no revalidation or
// ETag handling, a documented limitation). On ANY failure in the chain,
// download, decode, re-encode or store, the fixed placeholder id is
// returned so region linking proceeds with a missing-image tile.
func (gk *Gatekeeper) GetMapImage(regionID uuid.UUID, imageURL string) uuid.UUID {
	if memoized, ok := gk.tileMemo.Get(regionID); ok {
		gk.fed.config.msink.IncrCounterWithLabels(MetricTileHitCount, 1.0, gk.fed.config.metricLabels)
		return memoized
	}

	gk.tileLk.Lock()
	defer gk.tileLk.Unlock()

	// Memo may have been filled while we waited on the lock.
	if memoized, ok := gk.tileMemo.Get(regionID); ok {
		return memoized
	}

	if err := gk.tileWiring(); err != nil {
		gk.logger.Warn("map tile caching not wired, serving placeholder", LabelRegionID.L(regionID), LabelError.L(err))
		return gk.placeholder
	}

	path := filepath.Join(gk.tileDir, fmt.Sprintf("map-%s.tile", regionID))

	data, err := os.ReadFile(path)
	if err != nil {
		start := time.Now()
		data, err = gk.downloadTile(imageURL, path)
		if err != nil {
			gk.logger.Warn("map tile download failed", LabelRegionID.L(regionID), LabelError.L(err))
			return gk.placeholder
		}
		gk.logger.Debug("map tile downloaded", LabelRegionID.L(regionID), LabelDuration.L(time.Since(start)))
	} else {
		gk.fed.config.msink.IncrCounterWithLabels(MetricTileHitCount, 1.0, gk.fed.config.metricLabels)
	}

	decoded, err := gk.codec.Decode(data)
	if err != nil {
		gk.logger.Warn("map tile decode failed", LabelRegionID.L(regionID), LabelError.L(err))
		return gk.placeholder
	}

	encoded, err := gk.codec.Encode(decoded)
	if err != nil {
		gk.logger.Warn("map tile re-encode failed", LabelRegionID.L(regionID), LabelError.L(err))
		return gk.placeholder
	}

	asset := &Asset{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("map %s", regionID),
		Type: assetTypeTexture,
		Data: encoded,
	}
	storedID, err := gk.store.Store(asset)
	if err != nil {
		gk.logger.Warn("map tile store failed", LabelRegionID.L(regionID), LabelError.L(err))
		return gk.placeholder
	}

	assetID := wireUUID(storedID, uuid.Nil)
	if assetID == uuid.Nil {
		gk.logger.Warn("local store returned an unusable id", LabelRegionID.L(regionID), "stored_id", storedID)
		return gk.placeholder
	}

	gk.tileMemo.Add(regionID, assetID)
	gk.logger.Info("map tile cached", LabelRegionID.L(regionID), LabelAssetID.L(assetID))
	return assetID
}

func (gk *Gatekeeper) tileWiring() error {
	switch {
	case gk.tileDir == "":
		return ErrNoTileDir
	case gk.store == nil:
		return ErrNoAssetStore
	case gk.codec == nil:
		return ErrNoImageCodec
	}
	return nil
}

func (gk *Gatekeeper) downloadTile(imageURL, path string) ([]byte, error) {
	gk.fed.config.msink.IncrCounterWithLabels(MetricTileDownloadCount, 1.0, gk.fed.config.metricLabels)

	resp, err := gk.httpc.Get(imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile server answered %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return data, nil
}
