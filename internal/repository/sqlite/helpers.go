package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"netaudit/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToIntPtr converts sql.NullInt64 to *int
func nullToIntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// intPtrToNull converts *int to sql.NullInt64
func intPtrToNull(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// nil and empty slices are stored as NULL.
func marshalToNull(v any) (sql.NullString, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case []domain.Protocol:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	case []domain.MTUPair:
		if len(x) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order must match between the *Columns constant, scanArgs() and
// every SELECT that uses the constant.

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	Name          string
	DeviceType    string
	ProtocolsJSON sql.NullString
	ASN           sql.NullInt64
}

const nodeColumns = `name, device_type, protocols, asn`

func (r *nodeRow) scanArgs() []any {
	return []any{&r.Name, &r.DeviceType, &r.ProtocolsJSON, &r.ASN}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() (*domain.Node, error) {
	node := &domain.Node{
		Name:      r.Name,
		Kind:      domain.DeviceKind(r.DeviceType),
		Protocols: []domain.Protocol{},
		ASN:       nullToIntPtr(r.ASN),
	}
	if err := unmarshalJSONField(r.ProtocolsJSON, &node.Protocols); err != nil {
		return nil, fmt.Errorf("unmarshal protocols: %w", err)
	}
	return node, nil
}

// edgeRow holds all columns from an edge query for scanning
type edgeRow struct {
	EdgeKey      string
	A            string
	B            string
	CapacityKbps int
	MTUsJSON     sql.NullString
}

const edgeColumns = `edge_key, a, b, capacity_kbps, mtus`

func (r *edgeRow) scanArgs() []any {
	return []any{&r.EdgeKey, &r.A, &r.B, &r.CapacityKbps, &r.MTUsJSON}
}

// toDomain converts the scanned row to a domain.Edge without its links
func (r *edgeRow) toDomain() (*domain.Edge, error) {
	edge := &domain.Edge{
		A:            r.A,
		B:            r.B,
		CapacityKbps: r.CapacityKbps,
		MTUPairs:     []domain.MTUPair{},
	}
	if err := unmarshalJSONField(r.MTUsJSON, &edge.MTUPairs); err != nil {
		return nil, fmt.Errorf("unmarshal mtus: %w", err)
	}
	return edge, nil
}
