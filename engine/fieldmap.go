package engine

// =============================================================================
// FIELD TABLE - Logical field name -> physical mapping
// =============================================================================
// The scheme declares field mappings in several lists (base data,
// qualification, adjustment, exclusion, credit). They merge into one
// lookup table; later entries for the same logical name overwrite earlier
// ones, list order as declared on FieldCatalog. The configured agent and
// amount columns are always resolvable even when the catalog omits them.

type FieldTable struct {
	byName map[string]FieldMapping
}

// BuildFieldTable merges the scheme's field-mapping catalog.
func BuildFieldTable(s *Scheme) *FieldTable {
	t := &FieldTable{byName: make(map[string]FieldMapping)}

	// Implicit fields first so catalog entries can override them.
	t.put(FieldMapping{
		Name:        s.Base.AgentField,
		SourceField: s.Base.AgentField,
		DataType:    TypeString,
		Level:       LevelPerRecord,
		Aggregation: AggNotApplicable,
	})
	t.put(FieldMapping{
		Name:        s.Base.AmountField,
		SourceField: s.Base.AmountField,
		DataType:    TypeNumber,
		Level:       LevelPerRecord,
		Aggregation: AggNotApplicable,
	})

	for _, list := range [][]FieldMapping{
		s.Fields.Base,
		s.Fields.Qualification,
		s.Fields.Adjustment,
		s.Fields.Exclusion,
		s.Fields.Credit,
	} {
		for _, m := range list {
			t.put(m)
		}
	}
	return t
}

func (t *FieldTable) put(m FieldMapping) {
	if m.Name == "" {
		return
	}
	if m.SourceField == "" {
		m.SourceField = m.Name
	}
	if m.DataType == "" {
		m.DataType = TypeString
	}
	if m.Level == "" {
		m.Level = LevelPerRecord
	}
	if m.Aggregation == "" {
		m.Aggregation = AggNotApplicable
	}
	t.byName[m.Name] = m
}

// Resolve looks up a logical field name. A false return is non-fatal:
// callers skip the rule and emit a Warning.
func (t *FieldTable) Resolve(name string) (FieldMapping, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Len reports the number of distinct logical fields.
func (t *FieldTable) Len() int { return len(t.byName) }
