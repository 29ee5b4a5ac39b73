package wiki

// Entry is a single stored wiki text node, scoped to a tenant and
// optionally parented to another entry (the wiki is a tree).
type Entry struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	ParentID   *string `json:"parent_id,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Meta       *string `json:"meta,omitempty"`
	TenantWide bool    `json:"tenant_wide"`
	Hidden     bool    `json:"hidden"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	DeletedAt  *string `json:"deleted_at,omitempty"`
}

// Snapshot is an immutable copy of an entry's full state, taken just
// before a mutation was committed. The history log is linear and
// append-only per entry.
type Snapshot struct {
	ID         int64   `json:"id"`
	EntryID    string  `json:"entry_id"`
	TenantID   string  `json:"tenant_id"`
	ParentID   *string `json:"parent_id,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Meta       *string `json:"meta,omitempty"`
	TenantWide bool    `json:"tenant_wide"`
	Hidden     bool    `json:"hidden"`
	SavedBy    *string `json:"saved_by,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// CreateEntryParams holds the input for creating a new wiki entry.
type CreateEntryParams struct {
	TenantID   string `json:"tenant_id"`
	ParentID   string `json:"parent_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Title      string `json:"title"`
	Text       string `json:"text,omitempty"`
	Meta       string `json:"meta,omitempty"`
	TenantWide bool   `json:"tenant_wide,omitempty"`
	Hidden     bool   `json:"hidden,omitempty"`
}

// TreeNode is one node in a wiki structure listing.
type TreeNode struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Children []TreeNode `json:"children,omitempty"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	TotalEntries   int      `json:"total_entries"`
	TotalSnapshots int      `json:"total_snapshots"`
	Tenants        []string `json:"tenants"`
}
