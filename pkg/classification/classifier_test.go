package classification

import (
	"testing"

	"katapultqc/pkg/types"
)

func TestClassifyWirePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		item  Item
		want  Kind
	}{
		{"primary", Item{Category: types.CategoryWire, Label: "Primary"}, KindPowerPrimary},
		{"transmission", Item{Category: types.CategoryWire, Label: "Transmission"}, KindPowerPrimary},
		{"neutral", Item{Category: types.CategoryWire, Label: "Neutral"}, KindPowerNeutral},
		{"secondary", Item{Category: types.CategoryWire, Label: "Secondary"}, KindPowerSecondary},
		{"triplex", Item{Category: types.CategoryWire, Label: "Triplex"}, KindPowerSecondary},
		{"service-not-comm", Item{Category: types.CategoryWire, Label: "Service"}, KindPowerSecondary},
		{"street light feed", Item{Category: types.CategoryWire, Label: "Street Light Feed"}, KindPowerSecondary},
		{"power other", Item{Category: types.CategoryWire, Label: "Electric Supply"}, KindPowerOther},
		{"comm fiber", Item{Category: types.CategoryWire, Label: "Fiber Optic"}, KindComm},
		{"comm catv drop", Item{Category: types.CategoryWire, Label: "CATV Drop"}, KindComm},
		{"other", Item{Category: types.CategoryWire, Label: "Unlabeled Strand"}, KindOther},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.item)
			if got.Kind != c.want {
				t.Errorf("Classify(%+v).Kind = %q, want %q", c.item, got.Kind, c.want)
			}
		})
	}
}

func TestClassifyStreetLightFeedIsPowerNotStreetlight(t *testing.T) {
	c := Classify(Item{Category: types.CategoryWire, Label: "Street Light Feed"})
	if !c.IsStreetLightFeed {
		t.Error("expected IsStreetLightFeed")
	}
	if c.IsStreetLight {
		t.Error("street light feed must not be classified as street light equipment")
	}
	if c.Kind != KindPowerSecondary {
		t.Errorf("Kind = %q, want power_secondary", c.Kind)
	}
}

func TestClassifyEquipmentPrecedence(t *testing.T) {
	cases := []struct {
		name string
		item Item
		want Kind
	}{
		{"streetlight", Item{Category: types.CategoryEquipment, Label: "Street Light"}, KindStreetLight},
		{"streetlight drip loop", Item{Category: types.CategoryEquipment, Label: "Street Light Drip Loop"}, KindStreetLightDripLoop},
		{"power drip loop", Item{Category: types.CategoryEquipment, Label: "Drip Loop"}, KindPowerDripLoop},
		{"riser", Item{Category: types.CategoryEquipment, Label: "Riser"}, KindRiser},
		{"plain equipment", Item{Category: types.CategoryEquipment, Label: "Transformer"}, KindEquipment},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.item)
			if got.Kind != c.want {
				t.Errorf("Classify(%+v).Kind = %q, want %q", c.item, got.Kind, c.want)
			}
		})
	}
}

func TestClassifyGuy(t *testing.T) {
	c := Classify(Item{Category: types.CategoryGuy, Label: "Down Guy"})
	if c.Kind != KindGuy {
		t.Errorf("Kind = %q, want guy", c.Kind)
	}
	if !c.IsDownGuy {
		t.Error("expected IsDownGuy")
	}
}

func TestIsCommDropRequiresOtherIndicator(t *testing.T) {
	serviceDrop := Classify(Item{Category: types.CategoryWire, Label: "Service Drop"})
	if serviceDrop.IsCommDrop {
		t.Error("a power service drop must not be a comm drop")
	}

	commDrop := Classify(Item{Category: types.CategoryWire, Label: "Fiber Drop"})
	if !commDrop.IsCommDrop {
		t.Error("a fiber drop must be a comm drop")
	}
}

func TestClassifyTotality(t *testing.T) {
	for _, cat := range []types.Category{types.CategoryWire, types.CategoryEquipment, types.CategoryGuy} {
		c := Classify(Item{Category: cat, Label: "unrecognized xyz"})
		if c.Kind == "" {
			t.Errorf("category %v produced empty Kind", cat)
		}
	}
}

func TestFromMeasureDefaultsToWire(t *testing.T) {
	m := &types.Measure{Label: "Primary"}
	item := FromMeasure(m)
	if item.Category != types.CategoryWire {
		t.Errorf("FromMeasure default category = %q, want Wire", item.Category)
	}
}
