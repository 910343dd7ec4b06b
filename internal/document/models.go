package document

import "time"

// Document is the persistent record behind a collaborative editing session.
// The realtime content itself lives in the external room provider; this
// record carries ownership, the collaborator list and the room binding.
type Document struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Title         string    `json:"title" bson:"title"`
	RoomID        string    `json:"roomId" bson:"roomId"`
	CreatedBy     string    `json:"createdBy" bson:"createdBy"`
	Collaborators []string  `json:"collaborators" bson:"collaborators"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultTitle is used when a document is created without a title.
const DefaultTitle = "Untitled Document"

// NormalizeCollaborators returns collaborators with the creator guaranteed to
// be a member and duplicates dropped, preserving first-seen order.
func NormalizeCollaborators(createdBy string, collaborators []string) []string {
	out := make([]string, 0, len(collaborators)+1)
	seen := make(map[string]bool, len(collaborators)+1)
	for _, id := range collaborators {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if !seen[createdBy] {
		out = append(out, createdBy)
	}
	return out
}
