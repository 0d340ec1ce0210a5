package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"menuhub/internal/models"
)

// Principal answers capability questions for an authenticated identity. The
// concrete variant is chosen once from the role, so the admin bypass and the
// employee evaluation live only here.
type Principal interface {
	Role() models.Role
	Can(module models.Module, action models.Action) bool
}

type adminPrincipal struct{}

func (adminPrincipal) Role() models.Role { return models.RoleAdmin }
func (adminPrincipal) Can(models.Module, models.Action) bool { return true }

type employeePrincipal struct {
	record models.PermissionRecord
}

func (employeePrincipal) Role() models.Role { return models.RoleEmployee }

func (p employeePrincipal) Can(module models.Module, action models.Action) bool {
	return CanPerform(p.record, module, action)
}

type deniedPrincipal struct {
	role models.Role
}

func (p deniedPrincipal) Role() models.Role { return p.role }
func (deniedPrincipal) Can(models.Module, models.Action) bool { return false }

// PrincipalFromClaims builds the principal for verified claims. Only employee
// claims have their permission snapshot decoded; a malformed snapshot is an
// error, an absent one denies everything.
func PrincipalFromClaims(claims *Claims) (Principal, error) {
	if claims == nil {
		return deniedPrincipal{}, nil
	}
	switch claims.Role {
	case models.RoleAdmin:
		return adminPrincipal{}, nil
	case models.RoleEmployee:
		record, err := DecodePermissions(claims.Permissions)
		if err != nil {
			return nil, err
		}
		return employeePrincipal{record: record}, nil
	default:
		return deniedPrincipal{role: claims.Role}, nil
	}
}

// HasCapability is the single capability check used by handlers.
func HasCapability(p Principal, module models.Module, action models.Action) bool {
	if p == nil {
		return false
	}
	return p.Can(module, action)
}

// DecodePermissions accepts a permission snapshot either as a JSON object or
// as a JSON string holding the serialized object. Well-formed JSON that is not
// an object decodes to an empty record, which grants nothing.
func DecodePermissions(raw json.RawMessage) (models.PermissionRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var serialized string
		if err := json.Unmarshal(raw, &serialized); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
		if serialized == "" {
			return nil, nil
		}
		raw = json.RawMessage(serialized)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		if json.Valid(raw) {
			return nil, nil
		}
		return nil, errors.New("decode permissions: malformed snapshot")
	}
	var record models.PermissionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return record, nil
}

// EncodePermissions produces the claim snapshot for a record.
func EncodePermissions(record models.PermissionRecord) (json.RawMessage, error) {
	if record == nil {
		return nil, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}
	return data, nil
}
