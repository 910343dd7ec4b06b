package document

// Access policy: pure predicates over a document and a requesting user.
// Callers translate a false result into ErrAccessDenied (or the more
// specific ErrCannotRemoveCreator); the policy itself never errors.

// CanRead reports whether userID may read the document: the creator and any
// listed collaborator have access.
func CanRead(d *Document, userID string) bool {
	if d.CreatedBy == userID {
		return true
	}
	for _, id := range d.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CanWrite is the same predicate as CanRead: collaborators are not split
// into read-only and read-write tiers at the record level.
func CanWrite(d *Document, userID string) bool {
	return CanRead(d, userID)
}

// CanDelete permits only the creator, never a collaborator.
func CanDelete(d *Document, userID string) bool {
	return d.CreatedBy == userID
}

// CanManageCollaborators permits the creator to remove anyone, and any user
// to remove themselves. Removing the creator is rejected unconditionally and
// must be checked by the caller before applying the removal.
func CanManageCollaborators(d *Document, userID, collaboratorID string) bool {
	return d.CreatedBy == userID || collaboratorID == userID
}
