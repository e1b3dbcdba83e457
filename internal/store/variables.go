package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SetVariable upserts one (entity_type, entity_name, var_name) -> value
// binding, overwriting any existing value. Lists and maps are serialized
// to JSON; everything else is stored as its plain string form.
func (q *queries) SetVariable(ctx context.Context, entityType, entityName, name string, value any) error {
	encoded, err := EncodeValue(value)
	if err != nil {
		return fmt.Errorf("set variable %q: %w", name, err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO variables (entity_type, entity_name, var_name, var_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_name, var_name) DO UPDATE SET
			var_value = excluded.var_value
	`, entityType, entityName, name, encoded)
	if err != nil {
		return fmt.Errorf("set variable %q for %s %q: %w", name, entityType, entityName, err)
	}
	return nil
}

// GetVariable retrieves and decodes one variable value.
// Returns ErrNotFound if the binding does not exist.
func (q *queries) GetVariable(ctx context.Context, entityType, entityName, name string) (any, error) {
	var raw string
	err := q.db.QueryRowContext(ctx, `
		SELECT var_value FROM variables
		WHERE entity_type = ? AND entity_name = ? AND var_name = ?
	`, entityType, entityName, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("variable %q for %s %q: %w", name, entityType, entityName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get variable: %w", err)
	}
	return DecodeValue(raw), nil
}

// ListVariablesFor returns all decoded variables of one entity, ordered by
// variable name for deterministic merging.
func (q *queries) ListVariablesFor(ctx context.Context, entityType, entityName string) (map[string]any, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT var_name, var_value FROM variables
		WHERE entity_type = ? AND entity_name = ?
		ORDER BY var_name ASC
	`, entityType, entityName)
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	vars := make(map[string]any)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		vars[name] = DecodeValue(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variables: %w", err)
	}
	return vars, nil
}

// RemoveVariable deletes one variable binding. Removing an absent binding
// returns ErrNotFound.
func (q *queries) RemoveVariable(ctx context.Context, entityType, entityName, name string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM variables
		WHERE entity_type = ? AND entity_name = ? AND var_name = ?
	`, entityType, entityName, name)
	if err != nil {
		return fmt.Errorf("remove variable: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove variable: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("variable %q for %s %q: %w", name, entityType, entityName, ErrNotFound)
	}
	return nil
}

// EncodeValue serializes a variable value to its stored text form.
// Strings pass through untouched; composite values become JSON.
func EncodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode value: %w", err)
		}
		return string(data), nil
	}
}

// DecodeValue reverses EncodeValue: values that parse as JSON come back as
// the decoded structure (numbers, bools, lists, maps), everything else as
// the raw string.
func DecodeValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	return decoded
}
