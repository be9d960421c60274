package store

import (
	"strings"
	"time"
)

// Status tracks one side (download or upload) of a resource's lifecycle.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

var statusSet = map[Status]struct{}{
	StatusUnknown: {},
	StatusSuccess: {},
	StatusFail:    {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Article is one seen feed entry. Articles form an append-only dedup ledger:
// at most one row exists per canonical link, and the pipeline never updates
// or deletes them.
type Article struct {
	ID        int64
	Link      string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resource is one physical file tracked from extraction or local discovery
// through upload. Rows are keyed by (URL, Name); a pair is never duplicated,
// the existing row is updated in place.
type Resource struct {
	ID             int64
	URL            string
	Name           string
	LocalPath      string
	RemotePath     string
	MimeType       string
	Size           int64
	DownloadStatus Status
	UploadStatus   Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a copy of the resource without an identity, for deriving
// sidecar rows from a main artifact.
func (r *Resource) Clone() *Resource {
	cp := *r
	cp.ID = 0
	cp.CreatedAt = time.Time{}
	cp.UpdatedAt = time.Time{}
	return &cp
}

const (
	maxLinkLen  = 2048
	maxTitleLen = 256
)

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
