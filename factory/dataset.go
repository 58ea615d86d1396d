package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/warp/incentive-engine/engine"
)

// =============================================================================
// DATASET ENVELOPE
// =============================================================================
// The engine consumes already-parsed tables. The envelope is their
// serialized form, produced by whatever loaded the raw files upstream:
//
//   {
//     "sales.csv": {
//       "columns": ["txnId", "agentId", "amount", "txnDate"],
//       "data": [{"txnId": "T1", "agentId": "A1", "amount": 1000, "txnDate": "2024-05-01"}]
//     },
//     "hierarchy.csv": { ... }
//   }

type tableFile struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// LoadDataset reads a dataset envelope from disk.
func LoadDataset(path string) (engine.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset parses a JSON dataset envelope.
func ParseDataset(data []byte) (engine.Dataset, error) {
	var envelope map[string]tableFile
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	ds := make(engine.Dataset, len(envelope))
	for name, tf := range envelope {
		rows := make([]engine.Row, len(tf.Data))
		for i, row := range tf.Data {
			rows[i] = engine.Row(row)
		}
		ds[name] = engine.Table{Columns: tf.Columns, Rows: rows}
	}
	return ds, nil
}
