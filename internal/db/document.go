package db

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// Document is an opaque schemaless value stored in a JSONB column. The core
// never interprets its contents.
type Document map[string]any

func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Document) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("cannot scan %T into Document", src)
}
