// Package types defines the normalized domain model that the QC engine
// evaluates: poles, their attachments and guys, the midspans between poles,
// and the measurements taken within those midspans.
//
// Entities are constructed once from a parsed survey document and are
// immutable afterward — the QC engine may be re-run many times against the
// same Job with different Rules without the Job itself ever changing.
package types

import "strconv"

// Category classifies what kind of physical thing an Attachment or Measure
// record represents, before the heuristic Classifier assigns a semantic Kind.
type Category string

const (
	CategoryWire      Category = "Wire"
	CategoryEquipment Category = "Equipment"
	CategoryGuy       Category = "Guy"
)

// RowType is the right-of-way classification driving a midspan's ground
// clearance minimum.
type RowType string

const (
	RowDefault    RowType = "default"
	RowPedestrian RowType = "pedestrian"
	RowHighway    RowType = "highway"
	RowFarm       RowType = "farm"
	RowRail       RowType = "rail"
)

// PoleID, MidspanID, ConnectionID are opaque stable identifiers, unique
// within a Job.
type PoleID string
type MidspanID string
type ConnectionID string

// Pole is a vertical support structure carrying wires, equipment, and guys.
type Pole struct {
	ID                      PoleID
	SCID                    string
	PoleTag                 string
	PoleSpec                string
	ProposedPoleSpec        string
	PoleOwner               string
	DisplayName             string
	Lat, Lon                float64
	PoleReplacement         bool
	PoleReplacementIsTaller bool
	Attachments             []*Attachment
	GuyLines                []*GuyLine
	SourceRow               int
}

// Attachment is a wire, piece of equipment, or guy affixed to a pole at a
// measured height. ID is stable within the owning pole.
type Attachment struct {
	ID          string
	Category    Category
	Owner       string
	Label       string
	TraceID     string
	TraceType   string
	CableType   string
	Name        string
	TraceLabel  string
	ExistingIn  *int
	ProposedIn  *int
	IsMoved     bool
	IsNew       bool
	SourceRow   int
}

// EffectiveHeight returns ProposedIn when present, else ExistingIn, else
// (nil, false) when neither is known — the fallback spec.md §3 names
// "effectiveHeight".
func (a *Attachment) EffectiveHeight() (int, bool) {
	if a.ProposedIn != nil {
		return *a.ProposedIn, true
	}
	if a.ExistingIn != nil {
		return *a.ExistingIn, true
	}
	return 0, false
}

// Midspan is a measurement point between two poles recording wire heights
// along a span.
type Midspan struct {
	ID           MidspanID
	ConnectionID ConnectionID
	APoleID      *PoleID
	BPoleID      *PoleID
	Lat, Lon     float64
	RowTypeRaw   string
	RowType      RowType
	Measures     []*Measure
	SourceRow    int
}

// Measure is a single wire-height reading within a Midspan's photo. Measures
// lack a stable ID in the source data as often as not — MeasureKey provides
// the composite fallback spec.md §3/§9 describes.
type Measure struct {
	ID            string
	Category      Category
	Owner         string
	Label         string
	TraceType     string
	CableType     string
	Name          string
	TraceLabel    string
	TraceID       string
	WireID        string
	ExistingIn    *int
	ProposedIn    *int
	TraceProposed bool
	SourceRow     int
}

// EffectiveHeight mirrors Attachment.EffectiveHeight for a Measure.
func (m *Measure) EffectiveHeight() (int, bool) {
	if m.ProposedIn != nil {
		return *m.ProposedIn, true
	}
	if m.ExistingIn != nil {
		return *m.ExistingIn, true
	}
	return 0, false
}

// MeasureKey is the dedup/identity projection for a Measure: its own ID
// when present, else a composite of (traceId, wireId, proposedIn).
type MeasureKey string

// Key computes the stable identity of a Measure per spec.md §9.
func (m *Measure) Key() MeasureKey {
	if m.ID != "" {
		return MeasureKey("id:" + m.ID)
	}
	proposed := "nil"
	if m.ProposedIn != nil {
		proposed = strconv.Itoa(*m.ProposedIn)
	}
	return MeasureKey("ck:" + m.TraceID + "|" + m.WireID + "|" + proposed)
}

// Span relates two endpoints (each either a pole or a non-pole node, e.g. an
// anchor or service point) that a connection physically runs between.
type Span struct {
	ConnectionID ConnectionID
	ANodeID      string
	BNodeID      string
	AIsPole      bool
	BIsPole      bool
	ALat, ALon   float64
	BLat, BLon   float64
}

// GuyLine is a down-guy or anchor-bound support wire attached to a pole.
type GuyLine struct {
	PoleID        PoleID
	AnchorID      *string
	AnchorType    string
	TraceID       string
	ExistingIn    *int
	ProposedIn    *int
	TraceProposed bool
	Owner         string
}

// EffectiveHeight mirrors Attachment.EffectiveHeight for a GuyLine.
func (g *GuyLine) EffectiveHeight() (int, bool) {
	if g.ProposedIn != nil {
		return *g.ProposedIn, true
	}
	if g.ExistingIn != nil {
		return *g.ExistingIn, true
	}
	return 0, false
}

// Job is the root aggregate: every pole, midspan, span, and guy line that
// make up one joint-use survey.
type Job struct {
	ID       string
	Name     string
	Poles    map[PoleID]*Pole
	Midspans map[MidspanID]*Midspan
	Spans    []*Span
	GuyLines []*GuyLine
}

// NewJob returns an empty Job ready to be populated by a document reader.
func NewJob(id, name string) *Job {
	return &Job{
		ID:       id,
		Name:     name,
		Poles:    make(map[PoleID]*Pole),
		Midspans: make(map[MidspanID]*Midspan),
	}
}
