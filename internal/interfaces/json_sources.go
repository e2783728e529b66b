package interfaces

import (
	"encoding/json"
	"os"
	"strings"

	"katapultqc/internal/config"
	"katapultqc/pkg/errors"
	"katapultqc/pkg/types"
)

// jsonJob is the on-disk shape a JSONJobDocumentReader decodes: a Job
// already normalized to spec.md §3's entities. Genuine raw-survey parsing
// (whatever proprietary spreadsheet/export feeds this system) is the true
// external collaborator; this reader exists so the core CLI has something
// to load.
type jsonJob struct {
	ID       string            `json:"jobId"`
	Name     string            `json:"name"`
	Poles    []jsonPole        `json:"poles"`
	Midspans []jsonMidspan     `json:"midspans"`
	Spans    []jsonSpan        `json:"spans"`
	GuyLines []jsonGuyLine     `json:"guyLines"`
}

type jsonPole struct {
	ID                      string             `json:"poleId"`
	SCID                    string             `json:"scid"`
	PoleTag                 string             `json:"poleTag"`
	PoleSpec                string             `json:"poleSpec"`
	ProposedPoleSpec        string             `json:"proposedPoleSpec"`
	PoleOwner               string             `json:"poleOwner"`
	DisplayName             string             `json:"displayName"`
	Lat                     float64            `json:"lat"`
	Lon                     float64            `json:"lon"`
	PoleReplacement         bool               `json:"poleReplacement"`
	PoleReplacementIsTaller bool               `json:"poleReplacementIsTaller"`
	Attachments             []jsonAttachment   `json:"attachments"`
	SourceRow               int                `json:"sourceRow"`
}

type jsonAttachment struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Owner      string `json:"owner"`
	Label      string `json:"label"`
	TraceID    string `json:"traceId"`
	TraceType  string `json:"traceType"`
	CableType  string `json:"cableType"`
	Name       string `json:"name"`
	TraceLabel string `json:"traceLabel"`
	ExistingIn *int   `json:"existingIn"`
	ProposedIn *int   `json:"proposedIn"`
	IsMoved    bool   `json:"isMoved"`
	IsNew      bool   `json:"isNew"`
	SourceRow  int    `json:"sourceRow"`
}

type jsonMidspan struct {
	ID           string        `json:"midspanId"`
	ConnectionID string        `json:"connectionId"`
	APoleID      *string       `json:"aPoleId"`
	BPoleID      *string       `json:"bPoleId"`
	Lat          float64       `json:"lat"`
	Lon          float64       `json:"lon"`
	RowTypeRaw   string        `json:"rowTypeRaw"`
	Measures     []jsonMeasure `json:"measures"`
	SourceRow    int           `json:"sourceRow"`
}

type jsonMeasure struct {
	ID            string  `json:"id"`
	Category      string  `json:"category"`
	Owner         string  `json:"owner"`
	Label         string  `json:"label"`
	TraceType     string  `json:"traceType"`
	CableType     string  `json:"cableType"`
	Name          string  `json:"name"`
	TraceLabel    string  `json:"traceLabel"`
	TraceID       string  `json:"traceId"`
	WireID        string  `json:"wireId"`
	ExistingIn    *int    `json:"existingIn"`
	ProposedIn    *int    `json:"proposedIn"`
	ExistingInRaw *float64 `json:"existingInFractional"`
	ProposedInRaw *float64 `json:"proposedInFractional"`
	TraceProposed bool    `json:"traceProposed"`
	SourceRow     int     `json:"sourceRow"`
}

type jsonSpan struct {
	ConnectionID string  `json:"connectionId"`
	ANodeID      string  `json:"aNodeId"`
	BNodeID      string  `json:"bNodeId"`
	AIsPole      bool    `json:"aIsPole"`
	BIsPole      bool    `json:"bIsPole"`
	ALat         float64 `json:"aLat"`
	ALon         float64 `json:"aLon"`
	BLat         float64 `json:"bLat"`
	BLon         float64 `json:"bLon"`
}

type jsonGuyLine struct {
	PoleID        string  `json:"poleId"`
	AnchorID      *string `json:"anchorId"`
	AnchorType    string  `json:"anchorType"`
	TraceID       string  `json:"traceId"`
	ExistingIn    *int    `json:"existingIn"`
	ProposedIn    *int    `json:"proposedIn"`
	TraceProposed bool    `json:"traceProposed"`
	Owner         string  `json:"owner"`
}

// JSONJobDocumentReader reads a Job that is already in the normalized shape
// of spec.md §3 from a JSON file.
type JSONJobDocumentReader struct {
	path string
	meta SourceMetadata
}

// NewJSONJobDocumentReader creates a reader for the job document at path.
func NewJSONJobDocumentReader(path string) *JSONJobDocumentReader {
	return &JSONJobDocumentReader{path: path}
}

func (r *JSONJobDocumentReader) Metadata() SourceMetadata {
	return r.meta
}

// Parse decodes the JSON job document into the normalized Job model.
// Midspan measure heights are rounded to nearest whole inch on ingestion
// per spec.md §3's invariant; pole attachment heights are used as provided.
func (r *JSONJobDocumentReader) Parse() (*types.Job, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound(r.path)
		}
		return nil, errors.ErrFileReadFailed(r.path, err)
	}

	var doc jsonJob
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.ErrMalformedJob(r.path, err)
	}

	job := types.NewJob(doc.ID, doc.Name)
	rowCount := 0

	for _, jp := range doc.Poles {
		pole := &types.Pole{
			ID:                      types.PoleID(jp.ID),
			SCID:                    jp.SCID,
			PoleTag:                 jp.PoleTag,
			PoleSpec:                jp.PoleSpec,
			ProposedPoleSpec:        jp.ProposedPoleSpec,
			PoleOwner:               jp.PoleOwner,
			DisplayName:             jp.DisplayName,
			Lat:                     jp.Lat,
			Lon:                     jp.Lon,
			PoleReplacement:         jp.PoleReplacement,
			PoleReplacementIsTaller: jp.PoleReplacementIsTaller,
			SourceRow:               jp.SourceRow,
		}
		for _, ja := range jp.Attachments {
			pole.Attachments = append(pole.Attachments, &types.Attachment{
				ID:         ja.ID,
				Category:   types.Category(ja.Category),
				Owner:      ja.Owner,
				Label:      ja.Label,
				TraceID:    ja.TraceID,
				TraceType:  ja.TraceType,
				CableType:  ja.CableType,
				Name:       ja.Name,
				TraceLabel: ja.TraceLabel,
				ExistingIn: ja.ExistingIn,
				ProposedIn: ja.ProposedIn,
				IsMoved:    ja.IsMoved,
				IsNew:      ja.IsNew,
				SourceRow:  ja.SourceRow,
			})
			rowCount++
		}
		job.Poles[pole.ID] = pole
	}

	for _, jm := range doc.Midspans {
		ms := &types.Midspan{
			ID:           types.MidspanID(jm.ID),
			ConnectionID: types.ConnectionID(jm.ConnectionID),
			Lat:          jm.Lat,
			Lon:          jm.Lon,
			RowTypeRaw:   jm.RowTypeRaw,
			RowType:      classifyRowType(jm.RowTypeRaw),
			SourceRow:    jm.SourceRow,
		}
		if jm.APoleID != nil {
			id := types.PoleID(*jm.APoleID)
			ms.APoleID = &id
		}
		if jm.BPoleID != nil {
			id := types.PoleID(*jm.BPoleID)
			ms.BPoleID = &id
		}
		for _, jmeas := range jm.Measures {
			ms.Measures = append(ms.Measures, &types.Measure{
				ID:            jmeas.ID,
				Category:      types.Category(jmeas.Category),
				Owner:         jmeas.Owner,
				Label:         jmeas.Label,
				TraceType:     jmeas.TraceType,
				CableType:     jmeas.CableType,
				Name:          jmeas.Name,
				TraceLabel:    jmeas.TraceLabel,
				TraceID:       jmeas.TraceID,
				WireID:        jmeas.WireID,
				ExistingIn:    roundedHeight(jmeas.ExistingIn, jmeas.ExistingInRaw),
				ProposedIn:    roundedHeight(jmeas.ProposedIn, jmeas.ProposedInRaw),
				TraceProposed: jmeas.TraceProposed,
				SourceRow:     jmeas.SourceRow,
			})
			rowCount++
		}
		job.Midspans[ms.ID] = ms
	}

	for _, js := range doc.Spans {
		job.Spans = append(job.Spans, &types.Span{
			ConnectionID: types.ConnectionID(js.ConnectionID),
			ANodeID:      js.ANodeID,
			BNodeID:      js.BNodeID,
			AIsPole:      js.AIsPole,
			BIsPole:      js.BIsPole,
			ALat:         js.ALat,
			ALon:         js.ALon,
			BLat:         js.BLat,
			BLon:         js.BLon,
		})
	}

	for _, jg := range doc.GuyLines {
		gl := &types.GuyLine{
			PoleID:        types.PoleID(jg.PoleID),
			AnchorType:    jg.AnchorType,
			TraceID:       jg.TraceID,
			ExistingIn:    jg.ExistingIn,
			ProposedIn:    jg.ProposedIn,
			TraceProposed: jg.TraceProposed,
			Owner:         jg.Owner,
		}
		if jg.AnchorID != nil {
			id := *jg.AnchorID
			gl.AnchorID = &id
		}
		job.GuyLines = append(job.GuyLines, gl)
		if pole, ok := job.Poles[gl.PoleID]; ok {
			pole.GuyLines = append(pole.GuyLines, gl)
		}
	}

	r.meta = SourceMetadata{Path: r.path, Format: "json", RowCount: rowCount}
	return job, nil
}

// roundedHeight prefers an already-integer height; failing that, rounds a
// fractional (interpolated) height to the nearest inch per spec.md §3.
func roundedHeight(exact *int, fractional *float64) *int {
	if exact != nil {
		return exact
	}
	if fractional != nil {
		h := roundToInch(*fractional)
		return &h
	}
	return nil
}

func roundToInch(in float64) int {
	if in >= 0 {
		return int(in + 0.5)
	}
	return -int(-in + 0.5)
}

// classifyRowType maps a midspan's free-text right-of-way field to the
// closed RowType enum. This is a best-effort ingestion-time guess; the
// driveway-forces-default override named in spec.md §4.4 is applied later,
// during evaluation, since it is a rules-adjacent reinterpretation rather
// than a plain classification.
func classifyRowType(raw string) types.RowType {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(text, "pedestrian"), strings.Contains(text, "sidewalk"):
		return types.RowPedestrian
	case strings.Contains(text, "highway"), strings.Contains(text, "freeway"), strings.Contains(text, "interstate"):
		return types.RowHighway
	case strings.Contains(text, "farm"), strings.Contains(text, "agricultural"):
		return types.RowFarm
	case strings.Contains(text, "rail"):
		return types.RowRail
	default:
		return types.RowDefault
	}
}

// LocalRuleStore loads and saves a Rules document on the local filesystem.
type LocalRuleStore struct {
	Path string
}

// NewLocalRuleStore creates a file-backed RuleStore at path.
func NewLocalRuleStore(path string) *LocalRuleStore {
	return &LocalRuleStore{Path: path}
}

func (s *LocalRuleStore) Load() (config.Rules, error) {
	return config.LoadRulesFile(s.Path)
}

func (s *LocalRuleStore) Save(r config.Rules) error {
	if err := config.EnsureDir(s.Path); err != nil {
		return errors.ErrFileWriteFailed(s.Path, err)
	}
	doc := struct {
		Schema        string             `json:"schema"`
		SchemaVersion int                `json:"schemaVersion"`
		Rules         struct {
			Pole    config.PoleRules    `json:"pole"`
			Midspan config.MidspanRules `json:"midspan"`
		} `json:"rules"`
	}{
		Schema:        config.RulesSchema,
		SchemaVersion: config.RulesSchemaVersion,
	}
	doc.Rules.Pole = r.Pole
	doc.Rules.Midspan = r.Midspan

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return errors.ErrFileWriteFailed(s.Path, err)
	}
	return nil
}

// JSONIssueSink writes the issue list to a JSON file.
type JSONIssueSink struct {
	Path string
}

// NewJSONIssueSink creates an IssueSink that writes to path.
func NewJSONIssueSink(path string) *JSONIssueSink {
	return &JSONIssueSink{Path: path}
}

func (s *JSONIssueSink) Write(issues []types.Issue) error {
	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return errors.ErrFileWriteFailed(s.Path, err)
	}
	return nil
}
