package types

// Severity is the blocking level of an Issue.
type Severity string

const (
	SeverityWarn Severity = "WARN"
	SeverityFail Severity = "FAIL"
)

// Status is the roll-up QC outcome for one pole or midspan, derived from
// its issue list: fail if any FAIL issue, else warn if any WARN issue, else
// pass. Unknown is reserved for entities the engine never evaluated.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarn    Status = "warn"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// EntityType names what kind of entity an Issue is scoped to.
type EntityType string

const (
	EntityPole    EntityType = "pole"
	EntityMidspan EntityType = "midspan"
)

// Context carries machine-readable supplemental fields for an Issue:
// implicated attachment/measure ids, computed heights, owner pairs, and any
// per-rule data the presentation layer may want, keyed by field name.
type Context map[string]any

// Issue is a single rule violation or warning raised against a pole or
// midspan.
type Issue struct {
	Severity   Severity
	EntityType EntityType
	EntityID   string
	EntityName string
	RuleCode   string
	Message    string
	Context    Context
}

// AttachmentIDs returns the attachmentIds context slice, if present, in the
// order the rule stored it.
func (i Issue) AttachmentIDs() []string {
	return stringSliceFromContext(i.Context, "attachmentIds")
}

// MeasureIDs returns the measureIds context slice, if present, in the order
// the rule stored it.
func (i Issue) MeasureIDs() []string {
	return stringSliceFromContext(i.Context, "measureIds")
}

func stringSliceFromContext(ctx Context, key string) []string {
	if ctx == nil {
		return nil
	}
	v, ok := ctx[key]
	if !ok {
		return nil
	}
	ss, ok := v.([]string)
	if !ok {
		return nil
	}
	return ss
}
