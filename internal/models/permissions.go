package models

import (
	"bytes"
	"encoding/json"
)

// Module names the areas an employee can be granted access to.
type Module string

const (
	ModuleProducts   Module = "products"
	ModuleCategories Module = "categories"
	ModuleSchedules  Module = "schedules"
	ModuleSocials    Module = "socials"
	ModuleLocation   Module = "location"
	ModuleBranchInfo Module = "branchInfo"
)

// Modules lists the closed module set in a stable order.
var Modules = []Module{
	ModuleProducts,
	ModuleCategories,
	ModuleSchedules,
	ModuleSocials,
	ModuleLocation,
	ModuleBranchInfo,
}

// Action is a capability key. Only the two-action vocabulary is supported:
// canEdit implies canView.
type Action string

const (
	ActionView Action = "canView"
	ActionEdit Action = "canEdit"
)

func IsValidModule(m Module) bool {
	for _, known := range Modules {
		if known == m {
			return true
		}
	}
	return false
}

func IsValidAction(a Action) bool {
	return a == ActionView || a == ActionEdit
}

type Capabilities struct {
	CanView bool `json:"canView"`
	CanEdit bool `json:"canEdit"`
}

// UnmarshalJSON grants a capability only for the literal JSON value true.
// Strings, numbers and non-object values leave every capability false.
func (c *Capabilities) UnmarshalJSON(data []byte) error {
	*c = Capabilities{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	c.CanView = bytes.Equal(bytes.TrimSpace(fields[string(ActionView)]), []byte("true"))
	c.CanEdit = bytes.Equal(bytes.TrimSpace(fields[string(ActionEdit)]), []byte("true"))
	return nil
}

// PermissionRecord maps a module to the capabilities granted on it.
type PermissionRecord map[Module]Capabilities

// DefaultPermissionRecord is the deny-by-default record of a new employee.
func DefaultPermissionRecord() PermissionRecord {
	record := make(PermissionRecord, len(Modules))
	for _, m := range Modules {
		record[m] = Capabilities{}
	}
	return record
}
