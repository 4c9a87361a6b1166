package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is a free-form JSON object persisted as JSONB.
type Document map[string]any

// Value marshals the document into JSON for Postgres.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the document.
func (d *Document) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}

	raw, err := rawJSON(value)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}

	result := make(Document)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*d = result
	return nil
}

// GormDataType lets AutoMigrate pick a sensible column type.
func (Document) GormDataType() string {
	return "jsonb"
}

// StringList is an ordered list of strings persisted as a JSONB array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	raw, err := rawJSON(value)
	if err != nil {
		return fmt.Errorf("string list: %w", err)
	}

	var result []string
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

func (StringList) GormDataType() string {
	return "jsonb"
}

func rawJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
