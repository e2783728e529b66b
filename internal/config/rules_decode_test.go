package config

import "testing"

func TestDecodeRules_MissingKeysFallBackToDefaults(t *testing.T) {
	defaults := DefaultRules()
	data := []byte(`{
		"schema": "katapultQcRules",
		"schemaVersion": 1,
		"rules": {
			"pole": {"minLowestCommAttachIn": 250},
			"midspan": {}
		}
	}`)

	rules, err := DecodeRules(data)
	if err != nil {
		t.Fatalf("DecodeRules() error: %v", err)
	}
	if rules.Pole.MinLowestCommAttachIn != 250 {
		t.Errorf("MinLowestCommAttachIn = %d, want 250 (explicit override)", rules.Pole.MinLowestCommAttachIn)
	}
	if rules.Pole.CommSepDiffIn != defaults.Pole.CommSepDiffIn {
		t.Errorf("CommSepDiffIn = %d, want default %d (key absent)", rules.Pole.CommSepDiffIn, defaults.Pole.CommSepDiffIn)
	}
	if rules.Midspan.MinCommDefaultIn != defaults.Midspan.MinCommDefaultIn {
		t.Errorf("MinCommDefaultIn = %d, want default %d (empty midspan block)", rules.Midspan.MinCommDefaultIn, defaults.Midspan.MinCommDefaultIn)
	}
}

func TestDecodeRules_MalformedTopLevelFallsBackEntirely(t *testing.T) {
	rules, err := DecodeRules([]byte(`not json`))
	if err == nil {
		t.Fatal("expected an error for malformed top-level JSON")
	}
	if rules != DefaultRules() {
		t.Errorf("expected DefaultRules() on malformed document, got %+v", rules)
	}
}

func TestCoerceInt_AcceptsStringDigitsAndRejectsJunk(t *testing.T) {
	raw := map[string]interface{}{
		"a": float64(42),
		"b": "17",
		"c": "not-a-number",
		"d": true,
	}
	if got := coerceInt(raw, "a", -1); got != 42 {
		t.Errorf("coerceInt(float64) = %d, want 42", got)
	}
	if got := coerceInt(raw, "b", -1); got != 17 {
		t.Errorf("coerceInt(string digits) = %d, want 17", got)
	}
	if got := coerceInt(raw, "c", -1); got != -1 {
		t.Errorf("coerceInt(junk string) = %d, want default -1", got)
	}
	if got := coerceInt(raw, "missing", 9); got != 9 {
		t.Errorf("coerceInt(missing key) = %d, want default 9", got)
	}
	if got := coerceInt(raw, "d", -1); got != -1 {
		t.Errorf("coerceInt(bool) = %d, want default -1 (unsupported type)", got)
	}
}

func TestCoerceBool_Truthiness(t *testing.T) {
	raw := map[string]interface{}{
		"emptyStr": "",
		"zeroStr":  "0",
		"falseStr": "false",
		"noStr":    "no",
		"yesStr":   "yes",
		"oneStr":   "1",
		"zeroNum":  float64(0),
		"oneNum":   float64(1),
		"boolT":    true,
		"boolF":    false,
		"nullVal":  nil,
	}
	cases := []struct {
		key  string
		want bool
	}{
		{"emptyStr", false},
		{"zeroStr", false},
		{"falseStr", false},
		{"noStr", false},
		{"yesStr", true},
		{"oneStr", true},
		{"zeroNum", false},
		{"oneNum", true},
		{"boolT", true},
		{"boolF", false},
		{"nullVal", false},
	}
	for _, tc := range cases {
		if got := coerceBool(raw, tc.key, true); got != tc.want {
			t.Errorf("coerceBool(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
	if got := coerceBool(raw, "missing", true); got != true {
		t.Errorf("coerceBool(missing key) = %v, want default true", got)
	}
}

func TestLoadRulesFile_MissingFileReturnsDefaults(t *testing.T) {
	rules, err := LoadRulesFile("/nonexistent/path/rules.json")
	if err != nil {
		t.Fatalf("LoadRulesFile(missing) error = %v, want nil (falls back silently)", err)
	}
	if rules != DefaultRules() {
		t.Errorf("expected DefaultRules() for missing rules file, got %+v", rules)
	}
}
