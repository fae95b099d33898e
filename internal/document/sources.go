package document

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/singabi/dbkb/internal/errors"
	"github.com/singabi/dbkb/internal/logging"
	"github.com/singabi/dbkb/internal/schema"
)

// QueryRecord is one entry of the business-query JSON source
type QueryRecord struct {
	QueryID             string `json:"-"`
	Name                string `json:"name"`
	BusinessRequirement string `json:"business_requirement"`
	SQL                 string `json:"sql"`
}

// LoadQueryRecords reads the business-query JSON file, a mapping of
// query_id to record. Records come back sorted by query_id so that document
// order, and therefore build progress output, is deterministic.
func LoadQueryRecords(path string) ([]QueryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeSourceLoad,
			"failed to read query source %s", path)
	}

	var raw map[string]QueryRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeSourceLoad,
			"failed to parse query source %s", path)
	}

	records := make([]QueryRecord, 0, len(raw))

	for id, rec := range raw {
		rec.QueryID = id
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].QueryID < records[j].QueryID
	})

	return records, nil
}

// LoadQueryDocuments loads and renders all business-query documents
func LoadQueryDocuments(path string) ([]Document, error) {
	records, err := LoadQueryRecords(path)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, BuildQueryDocument(rec))
	}

	logging.Infof("loaded %d query documents from %s", len(docs), path)

	return docs, nil
}

// LoadSchemaDocuments loads the DDL file, parses it, and renders one document
// per table
func LoadSchemaDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeSourceLoad,
			"failed to read schema source %s", path)
	}

	tables, err := schema.Parse(string(data))
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(tables))
	for _, table := range tables {
		docs = append(docs, BuildSchemaDocument(table))
	}

	logging.Infof("loaded %d schema documents from %s", len(docs), path)

	return docs, nil
}
