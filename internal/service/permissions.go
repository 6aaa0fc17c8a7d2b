package service

// CanModify is the capability check for recipe mutation: the caller may
// modify or delete a resource iff they own it or hold the admin role.
//
// An explicit function (caller, owner, role) → allow/deny keeps the rule in
// one greppable place instead of spreading it across handlers. An empty
// ownerID (the author account was deleted) means only an admin may touch
// the resource.
func CanModify(callerID, ownerID string, callerIsAdmin bool) bool {
	if callerIsAdmin {
		return true
	}
	return callerID != "" && callerID == ownerID
}
