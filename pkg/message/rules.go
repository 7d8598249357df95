package message

import (
	"github.com/ssargent/fitedit/pkg/profile"
)

// RuleKind selects how a field converts between raw and semantic values.
type RuleKind uint8

const (
	RuleRaw RuleKind = iota
	RuleEnum
	RuleString
	RuleSemicircles
	RuleDateTime
	RuleLocalDateTime
	RuleScale
	// RuleSiblingPrefix resolves the enum table of a field from the symbol
	// of a sibling field: Type = Rename(symbol(Sibling)) + Suffix.
	RuleSiblingPrefix
	// RuleSiblingSwitch picks the enum table from Switch keyed by the
	// symbol of a sibling field; symbols not in Switch leave the field raw.
	RuleSiblingSwitch
)

func (k RuleKind) String() string {
	switch k {
	case RuleEnum:
		return "enum"
	case RuleString:
		return "string"
	case RuleSemicircles:
		return "semicircles"
	case RuleDateTime:
		return "date_time"
	case RuleLocalDateTime:
		return "local_date_time"
	case RuleScale:
		return "scale"
	case RuleSiblingPrefix:
		return "sibling_prefix"
	case RuleSiblingSwitch:
		return "sibling_switch"
	}
	return "raw"
}

// Rule is one entry of the conversion dispatch table.
type Rule struct {
	Kind RuleKind
	// Type is the enum table for RuleEnum.
	Type string

	Sibling string
	Suffix  string
	// Default stands in for the sibling symbol when the sibling is absent.
	Default string
	Rename  map[string]string
	Switch  map[string]string
}

// FieldKey addresses a field by message name and field name.
type FieldKey struct {
	Message string
	Field   string
}

var garminFamily = map[string]string{
	"garmin":         "garmin_product",
	"dynastream":     "garmin_product",
	"dynastream_oem": "garmin_product",
}

// DispatchTable holds the message/field pairs whose conversion cannot be
// derived from the profile field type alone. It is consulted before the
// generic rules.
var DispatchTable = map[FieldKey]Rule{
	{"device_info", "device_type"}: {
		Kind:    RuleSiblingPrefix,
		Sibling: "source_type",
		Suffix:  "_device_type",
		Default: "antplus",
		Rename: map[string]string{
			"bluetooth":            "ble",
			"bluetooth_low_energy": "ble",
		},
	},
	{"device_info", "product"}: {Kind: RuleSiblingSwitch, Sibling: "manufacturer", Switch: garminFamily},
	{"file_id", "product"}:     {Kind: RuleSiblingSwitch, Sibling: "manufacturer", Switch: garminFamily},
	{"event", "data"}: {
		Kind:    RuleSiblingSwitch,
		Sibling: "event",
		Switch:  map[string]string{"timer": "timer_trigger"},
	},
	{"session", "trigger"}:          {Kind: RuleEnum, Type: "session_trigger"},
	{"lap", "lap_trigger"}:          {Kind: RuleEnum, Type: "lap_trigger"},
	{"activity", "type"}:            {Kind: RuleEnum, Type: "activity"},
	{"activity", "local_timestamp"}: {Kind: RuleLocalDateTime},
}

// genericRule derives the rule of a field from its profile definition.
func genericRule(def profile.FieldDef, lookup profile.Lookup) Rule {
	switch def.Type {
	case "date_time":
		return Rule{Kind: RuleDateTime}
	case "local_date_time":
		return Rule{Kind: RuleLocalDateTime}
	case "semicircles":
		return Rule{Kind: RuleSemicircles}
	}
	if def.Type != "" && lookup.Has(def.Type) && def.BaseType.Integer() {
		return Rule{Kind: RuleEnum, Type: def.Type}
	}
	if def.BaseType == profile.String {
		return Rule{Kind: RuleString}
	}
	if def.Scaled() {
		return Rule{Kind: RuleScale}
	}
	return Rule{Kind: RuleRaw}
}
