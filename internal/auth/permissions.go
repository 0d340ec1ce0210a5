package auth

import (
	"fmt"

	"menuhub/internal/models"
)

// CanPerform evaluates a permission record for module/action. Role handling is
// not part of this function; see Principal.
func CanPerform(record models.PermissionRecord, module models.Module, action models.Action) bool {
	if record == nil {
		return false
	}
	caps, ok := record[module]
	if !ok {
		return false
	}
	switch action {
	case models.ActionView:
		return caps.CanView || caps.CanEdit
	case models.ActionEdit:
		return caps.CanEdit
	default:
		return false
	}
}

// ParseGrants converts a raw module -> action -> bool grant map into a full
// record. Unknown modules or actions are rejected; modules left out are denied.
func ParseGrants(grants map[string]map[string]bool) (models.PermissionRecord, error) {
	record := models.DefaultPermissionRecord()
	for name, actions := range grants {
		module := models.Module(name)
		if !models.IsValidModule(module) {
			return nil, fmt.Errorf("%w: unknown module %q", ErrInvalidPayload, name)
		}
		var caps models.Capabilities
		for key, granted := range actions {
			switch models.Action(key) {
			case models.ActionView:
				caps.CanView = granted
			case models.ActionEdit:
				caps.CanEdit = granted
			default:
				return nil, fmt.Errorf("%w: unknown action %q on %s", ErrInvalidPayload, key, name)
			}
		}
		record[module] = caps
	}
	return record, nil
}

// ValidateRecord rejects records naming modules outside the vocabulary.
func ValidateRecord(record models.PermissionRecord) error {
	for module := range record {
		if !models.IsValidModule(module) {
			return fmt.Errorf("%w: unknown module %q", ErrInvalidPayload, module)
		}
	}
	return nil
}
