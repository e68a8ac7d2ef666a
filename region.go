package hypergate

import "github.com/google/uuid"

// RegionDescriptor is the result of resolving a foreign region. Only
// RegionID and ServerURI are guaranteed; everything else defaults to
// zero/empty when the remote reply omits it, and partial replies decode
// field-by-field instead of failing whole.
type RegionDescriptor struct {
	RegionID uuid.UUID
	Handle   uint64
	Name     string

	// Grid coordinates, in meters from the grid origin.
	LocX uint32
	LocY uint32

	// Region extent, in meters.
	SizeX uint32
	SizeY uint32

	ServerURI   string
	MapImageID  uuid.UUID
	MapImageURL string
}

// LinkResult is the outcome of one link attempt. Attempts are stateless:
// each call runs a fresh request and lands in exactly one of success,
// remote fault or transport error, surfaced through OK and Reason.
type LinkResult struct {
	OK           bool
	RegionID     uuid.UUID
	Handle       uint64
	ExternalName string
	ImageURL     string
	SizeX        uint32
	SizeY        uint32

	// Reason is a short diagnostic suitable for direct display to the
	// administrator who asked for the link. Empty on success.
	Reason string
}
