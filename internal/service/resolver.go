package service

import "github.com/ecarfleet/fleet-api/internal/model"

// ResolveRecipients computes the set of users who must be asked for
// an odometer reading after a charge on the given vehicle.  The
// vehicle must arrive with its driver relations populated (see
// VehicleRepo.GetWithDrivers); this function performs no data-store
// calls of its own.
//
// The assigned driver comes first if present and active, followed by
// the secondary links in their stored order.  Users are deduplicated
// by id (first occurrence wins) and inactive users are dropped from
// both sources.  An empty result is a valid outcome: the session
// simply produces no notifications.
func ResolveRecipients(v *model.Vehicle) []model.User {
	out := []model.User{}
	seen := make(map[uint64]struct{})

	add := func(u *model.User) {
		if u == nil || !u.IsActive {
			return
		}
		if _, ok := seen[u.ID]; ok {
			return
		}
		seen[u.ID] = struct{}{}
		out = append(out, *u)
	}

	add(v.AssignedDriver)
	for i := range v.DriverLinks {
		add(v.DriverLinks[i].User)
	}
	return out
}
