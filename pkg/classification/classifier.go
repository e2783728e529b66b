// Package classification assigns a semantic Kind to every attachment and
// midspan measure by matching tokens in its free-text fields, the same
// precedence-switch approach the teacher's host classifier uses against
// protocol and vendor signals.
package classification

import (
	"regexp"
	"strings"

	"katapultqc/pkg/textnorm"
	"katapultqc/pkg/types"
)

// Kind is the semantic classification assigned to a Wire, Equipment, or Guy
// item.
type Kind string

const (
	KindPowerPrimary          Kind = "power_primary"
	KindPowerNeutral          Kind = "power_neutral"
	KindPowerSecondary        Kind = "power_secondary"
	KindPowerOther            Kind = "power_other"
	KindPowerDripLoop         Kind = "power_drip_loop"
	KindStreetLightDripLoop   Kind = "streetlight_drip_loop"
	KindStreetLight           Kind = "streetlight"
	KindRiser                 Kind = "riser"
	KindEquipment             Kind = "equipment"
	KindComm                  Kind = "comm"
	KindGuy                   Kind = "guy"
	KindOther                 Kind = "other"
)

// Classification is the result of classifying one attachment or measure:
// its semantic Kind plus a set of independent boolean facets used by the
// pole and midspan evaluators.
type Classification struct {
	Owner                 string
	Kind                  Kind
	IsAdss                bool
	IsDownGuy             bool
	IsRiser               bool
	IsTransformer         bool
	IsCommDrop            bool
	IsDripLoop            bool
	IsStreetLight         bool
	IsStreetLightDripLoop bool
	IsStreetLightFeed     bool
}

// Item is the minimal text-bearing shape the Classifier consumes. Attachment
// and Measure both satisfy it via FromAttachment/FromMeasure below.
type Item struct {
	Category   types.Category
	Owner      string
	Label      string
	TraceType  string
	CableType  string
	Name       string
	TraceLabel string
}

// FromAttachment adapts a Pole attachment into a classifier Item.
func FromAttachment(a *types.Attachment) Item {
	return Item{
		Category:   a.Category,
		Owner:      a.Owner,
		Label:      a.Label,
		TraceType:  a.TraceType,
		CableType:  a.CableType,
		Name:       a.Name,
		TraceLabel: a.TraceLabel,
	}
}

// FromMeasure adapts a Midspan measure into a classifier Item. Measures with
// a blank Category default to Wire per spec.md §4.1.
func FromMeasure(m *types.Measure) Item {
	cat := m.Category
	if cat == "" {
		cat = types.CategoryWire
	}
	return Item{
		Category:   cat,
		Owner:      m.Owner,
		Label:      m.Label,
		TraceType:  m.TraceType,
		CableType:  m.CableType,
		Name:       m.Name,
		TraceLabel: m.TraceLabel,
	}
}

var commIndicators = []string{
	"communication", "comm", "catv", "fiber", "telephone", "tel", "coax", "cable", "adss", "drop",
}

var otherCommIndicators = []string{
	"communication", "comm", "catv", "fiber", "telephone", "tel", "coax", "cable", "adss",
}

var wordDrop = regexp.MustCompile(`\bdrop\b`)

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// Classify is the pure classification function spec.md §4.1 names. It
// concatenates the item's textual fields (label, traceType, cableType, name,
// traceLabel, owner, category), lower-cases the result, and runs a
// precedence chain of token checks. Every Wire/Equipment/Guy item yields
// exactly one Kind (the classification-totality invariant).
func Classify(item Item) Classification {
	text := textnorm.FoldConcat(item.Label, item.TraceType, item.CableType, item.Name, item.TraceLabel, item.Owner, string(item.Category))

	c := Classification{Owner: item.Owner}

	c.IsAdss = strings.Contains(text, "adss")
	c.IsDripLoop = strings.Contains(text, "drip loop")
	c.IsRiser = strings.Contains(text, "riser")
	c.IsTransformer = strings.Contains(text, "transformer") || strings.Contains(text, "xfmr")
	c.IsStreetLightFeed = strings.Contains(text, "street light feed") || strings.Contains(text, "streetlight feed")
	streetlightTokens := strings.Contains(text, "street light") || strings.Contains(text, "streetlight")
	c.IsStreetLight = streetlightTokens && !c.IsStreetLightFeed
	c.IsCommDrop = wordDrop.MatchString(text) && containsAny(text, otherCommIndicators)
	looksComm := containsAny(text, commIndicators)

	switch item.Category {
	case types.CategoryGuy:
		c.Kind = KindGuy
		c.IsDownGuy = strings.Contains(text, "down")

	case types.CategoryEquipment:
		switch {
		case streetlightTokens && !c.IsStreetLightFeed:
			c.Kind = KindStreetLight
		case c.IsDripLoop:
			if streetlightTokens {
				c.Kind = KindStreetLightDripLoop
				c.IsStreetLightDripLoop = true
				c.IsStreetLight = true
			} else {
				c.Kind = KindPowerDripLoop
			}
		case c.IsRiser:
			c.Kind = KindRiser
		default:
			c.Kind = KindEquipment
		}

	default:
		c.Kind = classifyWireLike(text, looksComm, c.IsStreetLightFeed)
	}

	return c
}

// classifyWireLike implements the Wire-category precedence chain. Unknown
// or blank categories (e.g. a measure omitting category) fall back to it,
// since spec.md §4.1 treats a categoryless measure as a Wire.
func classifyWireLike(text string, looksComm, isStreetLightFeed bool) Kind {
	switch {
	case strings.Contains(text, "primary") || strings.Contains(text, "transmission"):
		return KindPowerPrimary
	case strings.Contains(text, "neutral"):
		return KindPowerNeutral
	case strings.Contains(text, "secondary") || strings.Contains(text, "triplex") ||
		(strings.Contains(text, "service") && !looksComm) || isStreetLightFeed:
		return KindPowerSecondary
	case strings.Contains(text, "power") || strings.Contains(text, "electric") || strings.Contains(text, "supply"):
		return KindPowerOther
	case looksComm:
		return KindComm
	default:
		return KindOther
	}
}
