package events

import (
	console "menuhub/internal/utils/logger"
)

var audit = console.New("AUDIT")

// identified is satisfied by models.Identity without importing models.
type identified interface {
	GetID() int64
}

// RegisterAuditLog logs every identity lifecycle event on the default bus.
func RegisterAuditLog() {
	for _, event := range []string{
		IdentityCreated,
		IdentityLoggedIn,
		IdentitySuspended,
		IdentityReactivated,
		IdentityPromoted,
		PermissionsUpdated,
		GuestsPurged,
	} {
		name := event
		On(name, func(data interface{}) {
			switch v := data.(type) {
			case identified:
				audit.Info("%s identity=%d", name, v.GetID())
			case int64:
				audit.Info("%s value=%d", name, v)
			default:
				audit.Info("%s", name)
			}
		})
	}
}
