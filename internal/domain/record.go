package domain

// Record is a single row of a resource collection as served to clients:
// the declared fields plus id and created_at.
type Record map[string]any

func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Event describes a content mutation, published to connected clients so
// they can refetch the affected collection.
type Event struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	ID       string `json:"id"`
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
