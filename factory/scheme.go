/*
Package factory provides declarative scheme file parsing.

PURPOSE:
  Converts JSON or YAML scheme definitions into engine.Scheme values.
  This keeps compensation plans configurable without code changes:
  operations teams edit scheme files, the factory builds the typed
  configuration the engine consumes.

FILE SCHEMA (JSON shown; YAML uses the same keys):
  {
    "id": "q2-retail",
    "name": "Q2 Retail Incentive",
    "effective_from": "2024-04-01",
    "base_mapping": {
      "source_file": "sales.csv",
      "agent_field": "agentId",
      "amount_field": "amount",
      "txn_id_field": "txnId",
      "txn_date_field": "txnDate"
    },
    "exclusion_rules":     [{"id": "x1", "field": "status", "operator": "=", "value": "returned"}],
    "adjustment_rules":    [{"id": "a1", "field": "channel", "operator": "=", "value": "online",
                             "target": "Amount", "method": "Percentage", "factor": 10}],
    "qualification_rules": [{"id": "q1", "field": "totalSales", "operator": ">=", "value": "5000"}],
    "tiers":         [{"from": 0, "to": 1000, "rate": 5, "is_percentage": true},
                      {"from": 1000, "rate": 10, "is_percentage": true}],
    "credit_splits": [{"level": "L1", "percent": 20}],
    "hierarchy_file": "hierarchy.csv",
    "field_mappings": {
      "qualification": [{"name": "totalSales", "source_field": "amount",
                         "data_type": "Number", "level": "Agent", "aggregation": "Sum"}]
    }
  }

NORMALIZATION:
  Operators, data types, levels, aggregations, and adjustment
  target/method are matched case-insensitively against their canonical
  spellings. Values that match nothing are passed through unchanged so
  the engine can log them as recoverable warnings instead of the factory
  silently rewriting the configuration.

FATAL ERRORS:
  Malformed JSON/YAML and an unparseable effective_from abort parsing;
  everything else is the engine's concern.

SEE ALSO:
  - engine/scheme.go: The typed configuration this factory produces
  - dataset.go: Parsing of the pre-structured data envelope
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/incentive-engine/engine"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// SchemeFile is the on-disk representation of a scheme.
type SchemeFile struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	EffectiveFrom string          `json:"effective_from" yaml:"effective_from"`
	EffectiveTo   string          `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	Base          BaseMappingFile `json:"base_mapping" yaml:"base_mapping"`

	Qualification []RuleFile           `json:"qualification_rules,omitempty" yaml:"qualification_rules,omitempty"`
	Exclusion     []RuleFile           `json:"exclusion_rules,omitempty" yaml:"exclusion_rules,omitempty"`
	Adjustment    []AdjustmentRuleFile `json:"adjustment_rules,omitempty" yaml:"adjustment_rules,omitempty"`
	Credit        []RuleFile           `json:"credit_rules,omitempty" yaml:"credit_rules,omitempty"`
	Custom        []CustomRuleFile     `json:"custom_rules,omitempty" yaml:"custom_rules,omitempty"`

	Tiers        []TierFile  `json:"tiers,omitempty" yaml:"tiers,omitempty"`
	CreditSplits []SplitFile `json:"credit_splits,omitempty" yaml:"credit_splits,omitempty"`

	HierarchyFile string           `json:"hierarchy_file,omitempty" yaml:"hierarchy_file,omitempty"`
	Fields        FieldCatalogFile `json:"field_mappings,omitempty" yaml:"field_mappings,omitempty"`
}

type BaseMappingFile struct {
	SourceFile   string `json:"source_file" yaml:"source_file"`
	AgentField   string `json:"agent_field" yaml:"agent_field"`
	AmountField  string `json:"amount_field" yaml:"amount_field"`
	TxnIDField   string `json:"txn_id_field" yaml:"txn_id_field"`
	TxnDateField string `json:"txn_date_field" yaml:"txn_date_field"`
}

type RuleFile struct {
	ID       string `json:"id" yaml:"id"`
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    string `json:"value" yaml:"value"`
}

type AdjustmentRuleFile struct {
	RuleFile `json:",inline" yaml:",inline"`
	Target   string  `json:"target" yaml:"target"`
	Method   string  `json:"method" yaml:"method"`
	Factor   float64 `json:"factor" yaml:"factor"`
}

type CustomRuleFile struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

type TierFile struct {
	From         float64  `json:"from" yaml:"from"`
	To           *float64 `json:"to,omitempty" yaml:"to,omitempty"`
	Rate         float64  `json:"rate" yaml:"rate"`
	IsPercentage bool     `json:"is_percentage" yaml:"is_percentage"`
}

type SplitFile struct {
	Level   string  `json:"level" yaml:"level"`
	Percent float64 `json:"percent" yaml:"percent"`
}

type FieldMappingFile struct {
	Name        string `json:"name" yaml:"name"`
	SourceField string `json:"source_field,omitempty" yaml:"source_field,omitempty"`
	DataType    string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Level       string `json:"level,omitempty" yaml:"level,omitempty"`
	Aggregation string `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

type FieldCatalogFile struct {
	Base          []FieldMappingFile `json:"base,omitempty" yaml:"base,omitempty"`
	Qualification []FieldMappingFile `json:"qualification,omitempty" yaml:"qualification,omitempty"`
	Adjustment    []FieldMappingFile `json:"adjustment,omitempty" yaml:"adjustment,omitempty"`
	Exclusion     []FieldMappingFile `json:"exclusion,omitempty" yaml:"exclusion,omitempty"`
	Credit        []FieldMappingFile `json:"credit,omitempty" yaml:"credit,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// LoadScheme reads a scheme file, choosing the format by extension
// (.yaml/.yml for YAML, anything else JSON).
func LoadScheme(path string) (*engine.Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSchemeYAML(data)
	default:
		return ParseScheme(data)
	}
}

// ParseScheme parses a JSON scheme definition.
func ParseScheme(data []byte) (*engine.Scheme, error) {
	var sf SchemeFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scheme JSON: %w", err)
	}
	return FromFile(sf)
}

// ParseSchemeYAML parses a YAML scheme definition.
func ParseSchemeYAML(data []byte) (*engine.Scheme, error) {
	var sf SchemeFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scheme YAML: %w", err)
	}
	return FromFile(sf)
}

// FromFile converts the on-disk shape to the engine's typed Scheme.
func FromFile(sf SchemeFile) (*engine.Scheme, error) {
	effFrom, ok := engine.ParseDate(sf.EffectiveFrom)
	if !ok {
		return nil, fmt.Errorf("scheme %q: unparseable effective_from %q: %w", sf.ID, sf.EffectiveFrom, engine.ErrInvalidScheme)
	}

	s := &engine.Scheme{
		ID:            sf.ID,
		Name:          sf.Name,
		EffectiveFrom: effFrom,
		Base: engine.BaseMapping{
			SourceFile:   sf.Base.SourceFile,
			AgentField:   sf.Base.AgentField,
			AmountField:  sf.Base.AmountField,
			TxnIDField:   sf.Base.TxnIDField,
			TxnDateField: sf.Base.TxnDateField,
		},
		HierarchyFile: sf.HierarchyFile,
	}

	if sf.EffectiveTo != "" {
		effTo, ok := engine.ParseDate(sf.EffectiveTo)
		if !ok {
			return nil, fmt.Errorf("scheme %q: unparseable effective_to %q: %w", sf.ID, sf.EffectiveTo, engine.ErrInvalidScheme)
		}
		s.EffectiveTo = effTo
	}

	s.Qualification = parseRules(sf.Qualification)
	s.Exclusion = parseRules(sf.Exclusion)
	s.Credit = parseRules(sf.Credit)

	for _, af := range sf.Adjustment {
		s.Adjustment = append(s.Adjustment, engine.AdjustmentRule{
			Rule:   parseRule(af.RuleFile),
			Target: parseTarget(af.Target),
			Method: parseMethod(af.Method),
			Factor: decimal.NewFromFloat(af.Factor),
		})
	}
	for _, cf := range sf.Custom {
		s.Custom = append(s.Custom, engine.CustomRule{
			ID:     engine.RuleID(cf.ID),
			Name:   cf.Name,
			Params: cf.Params,
		})
	}
	for _, tf := range sf.Tiers {
		tier := engine.PayoutTier{
			From:         decimal.NewFromFloat(tf.From),
			Rate:         decimal.NewFromFloat(tf.Rate),
			IsPercentage: tf.IsPercentage,
		}
		if tf.To != nil {
			to := decimal.NewFromFloat(*tf.To)
			tier.To = &to
		}
		s.Tiers = append(s.Tiers, tier)
	}
	for _, cs := range sf.CreditSplits {
		s.CreditSplits = append(s.CreditSplits, engine.CreditSplit{
			Level:   cs.Level,
			Percent: decimal.NewFromFloat(cs.Percent),
		})
	}

	s.Fields = engine.FieldCatalog{
		Base:          parseMappings(sf.Fields.Base),
		Qualification: parseMappings(sf.Fields.Qualification),
		Adjustment:    parseMappings(sf.Fields.Adjustment),
		Exclusion:     parseMappings(sf.Fields.Exclusion),
		Credit:        parseMappings(sf.Fields.Credit),
	}

	return s, nil
}

// =============================================================================
// NORMALIZATION HELPERS
// =============================================================================
// Recognized spellings normalize to canonical constants; anything else
// passes through so the engine can log it instead of the factory
// masking a configuration mistake.

func parseRules(rfs []RuleFile) []engine.Rule {
	rules := make([]engine.Rule, 0, len(rfs))
	for _, rf := range rfs {
		rules = append(rules, parseRule(rf))
	}
	return rules
}

func parseRule(rf RuleFile) engine.Rule {
	return engine.Rule{
		ID:       engine.RuleID(rf.ID),
		Field:    rf.Field,
		Operator: engine.ParseOperator(rf.Operator),
		Value:    rf.Value,
	}
}

func parseMappings(mfs []FieldMappingFile) []engine.FieldMapping {
	mappings := make([]engine.FieldMapping, 0, len(mfs))
	for _, mf := range mfs {
		mappings = append(mappings, engine.FieldMapping{
			Name:        mf.Name,
			SourceField: mf.SourceField,
			DataType:    parseDataType(mf.DataType),
			Level:       parseLevel(mf.Level),
			Aggregation: parseAggregation(mf.Aggregation),
		})
	}
	return mappings
}

func parseDataType(s string) engine.DataType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "numeric", "decimal":
		return engine.TypeNumber
	case "date":
		return engine.TypeDate
	case "string", "text":
		return engine.TypeString
	case "":
		return ""
	default:
		return engine.DataType(s)
	}
}

func parseLevel(s string) engine.EvalLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent":
		return engine.LevelAgent
	case "perrecord", "per_record", "record":
		return engine.LevelPerRecord
	case "":
		return ""
	default:
		return engine.EvalLevel(s)
	}
}

func parseAggregation(s string) engine.Aggregation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return engine.AggSum
	case "count":
		return engine.AggCount
	case "avg", "average":
		return engine.AggAvg
	case "min":
		return engine.AggMin
	case "max":
		return engine.AggMax
	case "notapplicable", "not_applicable", "none", "":
		return engine.AggNotApplicable
	default:
		return engine.Aggregation(s)
	}
}

func parseTarget(s string) engine.AdjustTarget {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amount":
		return engine.TargetAmount
	case "rate":
		return engine.TargetRate
	default:
		return engine.AdjustTarget(s)
	}
}

func parseMethod(s string) engine.AdjustMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent":
		return engine.MethodPercentage
	case "fixed":
		return engine.MethodFixed
	default:
		return engine.AdjustMethod(s)
	}
}
