package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"katapultqc/pkg/errors"
	"katapultqc/pkg/logging"

	"gopkg.in/yaml.v3"
)

// RulesSchema and RulesSchemaVersion are the fixed schema identifiers a
// Rules document must carry, spec.md §6.
const (
	RulesSchema        = "katapultQcRules"
	RulesSchemaVersion = 1
)

// RulesDocument is the wire shape of the JSON rules-persistence collaborator:
// { schema, schemaVersion, exportedAt, rules: { pole, midspan } }. The pole
// and midspan blocks are decoded as raw maps so that missing keys fall back
// to defaults field-by-field and numeric/boolean coercion can be applied,
// rather than failing the whole document on one malformed tunable.
type RulesDocument struct {
	Schema        string                 `json:"schema"`
	SchemaVersion int                    `json:"schemaVersion"`
	ExportedAt    string                 `json:"exportedAt"`
	Rules         rulesDocumentRules     `json:"rules"`
}

type rulesDocumentRules struct {
	Pole    map[string]interface{} `json:"pole"`
	Midspan map[string]interface{} `json:"midspan"`
}

// DecodeRules parses a Rules document's JSON bytes into Rules, falling back
// to DefaultRules() for the whole document if the top-level shape can't be
// decoded at all, and field-by-field for any tunable that is missing or of
// the wrong JSON type.
func DecodeRules(data []byte) (Rules, error) {
	defaults := DefaultRules()

	var doc RulesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return defaults, errors.ErrMalformedRules("<rules>", err)
	}

	rules := defaults
	applyPoleOverrides(&rules.Pole, doc.Rules.Pole)
	applyMidspanOverrides(&rules.Midspan, doc.Rules.Midspan)

	return rules, nil
}

// LoadRulesFile reads and decodes a Rules document from disk. A missing file
// falls back to DefaultRules() entirely, logging the fallback rather than
// failing — the engine must always have a usable Rules value.
func LoadRulesFile(path string) (Rules, error) {
	logger := logging.GetGlobalLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("rules file not found, using defaults", map[string]interface{}{"path": path})
			return DefaultRules(), nil
		}
		return DefaultRules(), errors.ErrFileReadFailed(path, err)
	}

	rules, err := DecodeRules(data)
	if err != nil {
		logger.Warn("rules file malformed, using default rules", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return rules, err
	}
	return rules, nil
}

func applyPoleOverrides(r *PoleRules, raw map[string]interface{}) {
	if raw == nil {
		return
	}
	r.MinLowestCommAttachIn = coerceInt(raw, "minLowestCommAttachIn", r.MinLowestCommAttachIn)
	r.CommSepDiffIn = coerceInt(raw, "commSepDiffIn", r.CommSepDiffIn)
	r.CommSepSameIn = coerceInt(raw, "commSepSameIn", r.CommSepSameIn)
	r.CommToPowerSepIn = coerceInt(raw, "commToPowerSepIn", r.CommToPowerSepIn)
	r.AdssCommToPowerSepIn = coerceInt(raw, "adssCommToPowerSepIn", r.AdssCommToPowerSepIn)
	r.CommToStreetLightSepIn = coerceInt(raw, "commToStreetLightSepIn", r.CommToStreetLightSepIn)
	r.MovedHoleBufferIn = coerceInt(raw, "movedHoleBufferIn", r.MovedHoleBufferIn)
	r.EnforceAdssHighest = coerceBool(raw, "enforceAdssHighest", r.EnforceAdssHighest)
	r.EnforceEquipmentMove = coerceBool(raw, "enforceEquipmentMove", r.EnforceEquipmentMove)
	r.EnforcePowerOrder = coerceBool(raw, "enforcePowerOrder", r.EnforcePowerOrder)
	r.EnforceNeutralSecondaryBelowTransformer = coerceBool(raw, "enforceNeutralSecondaryBelowTransformer", r.EnforceNeutralSecondaryBelowTransformer)
	r.WarnMissingPoleIdentifiers = coerceBool(raw, "warnMissingPoleIdentifiers", r.WarnMissingPoleIdentifiers)
}

func applyMidspanOverrides(r *MidspanRules, raw map[string]interface{}) {
	if raw == nil {
		return
	}
	r.MinCommDefaultIn = coerceInt(raw, "minCommDefaultIn", r.MinCommDefaultIn)
	r.MinCommPedestrianIn = coerceInt(raw, "minCommPedestrianIn", r.MinCommPedestrianIn)
	r.MinCommHighwayIn = coerceInt(raw, "minCommHighwayIn", r.MinCommHighwayIn)
	r.MinCommFarmIn = coerceInt(raw, "minCommFarmIn", r.MinCommFarmIn)
	r.MinCommRailIn = coerceInt(raw, "minCommRailIn", r.MinCommRailIn)
	r.CommSepIn = coerceInt(raw, "commSepIn", r.CommSepIn)
	r.CommToPowerSepIn = coerceInt(raw, "commToPowerSepIn", r.CommToPowerSepIn)
	r.AdssCommToPowerSepIn = coerceInt(raw, "adssCommToPowerSepIn", r.AdssCommToPowerSepIn)
	r.InstallingCompany = coerceString(raw, "installingCompany", r.InstallingCompany)
	r.InstallingCompanyCommSepIn = coerceInt(raw, "installingCompanyCommSepIn", r.InstallingCompanyCommSepIn)
	r.EnforceAdssHighest = coerceBool(raw, "enforceAdssHighest", r.EnforceAdssHighest)
	r.WarnMissingRowType = coerceBool(raw, "warnMissingRowType", r.WarnMissingRowType)
}

// coerceInt applies spec.md §6's "numeric coercion per field": JSON numbers
// decode as float64 and are truncated, and a string of digits is also
// accepted. Any other value (a bool, a non-numeric string, null) falls back
// to def rather than discarding the whole document.
func coerceInt(raw map[string]interface{}, key string, def int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		var n int
		if _, err := fmt.Sscanf(t, "%d", &n); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

func coerceString(raw map[string]interface{}, key, def string) string {
	v, ok := raw[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// coerceBool applies truthiness coercion per spec.md §6: false, 0, null, and
// the strings "", "0", "false" and "no" (case-insensitive, trimmed) are
// falsy; anything else present is truthy.
func coerceBool(raw map[string]interface{}, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "0", "false", "no":
			return false
		default:
			return true
		}
	case nil:
		return false
	default:
		return true
	}
}

// Manager loads the ambient AppConfig thread-safely — adapted from the
// teacher's pkg/config/manager.go precedence chain (defaults -> file -> env
// -> validate). It does not reload the AppConfig on change and does not
// handle the Rules document, which LoadRulesFile reads.
type Manager struct {
	appConfig *AppConfig
	logger    *logging.Logger
	mutex     sync.RWMutex
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		logger: logging.NewLogger("config-manager", logging.INFO, false),
	}
}

// LoadAppConfig loads the ambient AppConfig with precedence: defaults ->
// YAML file -> environment variables -> validate.
func (m *Manager) LoadAppConfig(path string) (*AppConfig, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cfg := GetDefaultAppConfig()

	if path != "" {
		if err := m.loadFromFile(cfg, path); err != nil {
			return nil, errors.ErrInvalidConfig(path, err)
		}
	}

	if err := m.setFromEnv(reflect.ValueOf(cfg).Elem(), "KATAPULTQC"); err != nil {
		return nil, errors.WrapUser(err, errors.CodeInvalidConfig, "failed to apply environment overrides")
	}

	if err := m.validate(cfg); err != nil {
		return nil, err
	}

	m.appConfig = cfg
	return m.copyConfig(cfg), nil
}

// GetAppConfig returns the current ambient config, a default if none has
// been loaded yet.
func (m *Manager) GetAppConfig() *AppConfig {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.appConfig == nil {
		return GetDefaultAppConfig()
	}
	return m.copyConfig(m.appConfig)
}

func (m *Manager) loadFromFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Info("app config file not found, using defaults", map[string]interface{}{"path": path})
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}

// setFromEnv recursively sets AppConfig fields from environment variables,
// the same reflection walk the teacher's Manager.setFromEnv uses.
func (m *Manager) setFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := prefix + "_" + strings.ToUpper(yamlTag)

		if field.Kind() == reflect.Struct {
			if err := m.setFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			if err := setFieldFromString(field, envValue); err != nil {
				return err
			}
		}
	}

	return nil
}

func setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(strings.ToLower(value) == "true" || value == "1")
	case reflect.Int, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			var n int
			if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
				return err
			}
			field.SetInt(int64(n))
		}
	}
	return nil
}

func (m *Manager) validate(cfg *AppConfig) error {
	if cfg.App.Name == "" {
		return errors.NewValidationError(errors.CodeMissingRequired, "app name is required")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port <= 0 {
		return errors.NewValidationError(errors.CodeInvalidInput, "metrics port must be positive").WithContext("port", cfg.Metrics.Port)
	}
	if cfg.Watch.DebounceTime < 0 {
		return errors.NewValidationError(errors.CodeInvalidInput, "watch debounce time must not be negative")
	}
	return nil
}

// copyConfig deep-copies an AppConfig via a YAML round trip, the same
// technique the teacher's Manager.copyConfig uses.
func (m *Manager) copyConfig(cfg *AppConfig) *AppConfig {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg
	}
	var out AppConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return cfg
	}
	return &out
}

// EnsureDir makes sure the directory for a config path exists, used by
// interfaces.LocalRuleStore.Save.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
