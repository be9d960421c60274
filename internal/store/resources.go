package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const resourceColumns = "id, url, name, local_path, remote_path, mime_type, size, download_status, upload_status, created_at, updated_at"

// FindResource returns the resource for a (url, name) pair, or nil when absent.
func (s *Store) FindResource(ctx context.Context, url, name string) (*Resource, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE url = ? AND name = ?`,
		url,
		name,
	)
	resource, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return resource, nil
}

// FindResourceByName returns the first resource with the given target
// filename regardless of source URL, or nil when absent. The local
// reconciler keys on names because discovered files carry no source URL.
func (s *Store) FindResourceByName(ctx context.Context, name string) (*Resource, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE name = ? ORDER BY id LIMIT 1`,
		name,
	)
	resource, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resource by name: %w", err)
	}
	return resource, nil
}

// UpsertResource inserts the resource or, when its (url, name) pair already
// exists, updates the existing row in place. Field updates are
// last-writer-wins; duplicate rows are never created. The resource's ID and
// timestamps are refreshed from the stored row.
func (s *Store) UpsertResource(ctx context.Context, r *Resource) error {
	if r == nil {
		return errors.New("resource is nil")
	}
	if r.Name == "" {
		return errors.New("resource name is required")
	}
	if r.DownloadStatus == "" {
		r.DownloadStatus = StatusUnknown
	}
	if r.UploadStatus == "" {
		r.UploadStatus = StatusUnknown
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO resources (
            url, name, local_path, remote_path, mime_type, size,
            download_status, upload_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (url, name) DO UPDATE SET
            local_path = excluded.local_path,
            remote_path = excluded.remote_path,
            mime_type = excluded.mime_type,
            size = excluded.size,
            download_status = excluded.download_status,
            upload_status = excluded.upload_status,
            updated_at = excluded.updated_at`,
		r.URL,
		r.Name,
		nullableString(r.LocalPath),
		nullableString(r.RemotePath),
		r.MimeType,
		r.Size,
		r.DownloadStatus,
		r.UploadStatus,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}

	stored, err := s.FindResource(ctx, r.URL, r.Name)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("resource %q/%q missing after upsert", r.URL, r.Name)
	}
	r.ID = stored.ID
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

// ResourcesByUploadStatus returns resources whose upload status matches any
// of the provided values, ordered by creation time.
func (s *Store) ResourcesByUploadStatus(ctx context.Context, statuses ...Status) ([]*Resource, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE upload_status IN (`+placeholders+`) ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query by upload status: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

// ListResources returns all tracked resources ordered by creation time.
func (s *Store) ListResources(ctx context.Context) ([]*Resource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

// ResourceStats returns a count of resources grouped by upload status.
func (s *Store) ResourceStats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT upload_status, COUNT(1) FROM resources GROUP BY upload_status`)
	if err != nil {
		return nil, fmt.Errorf("resource stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanResource(scanner interface{ Scan(dest ...any) error }) (*Resource, error) {
	var (
		id             int64
		url            string
		name           string
		localPath      sql.NullString
		remotePath     sql.NullString
		mimeType       string
		size           int64
		downloadStatus string
		uploadStatus   string
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&url,
		&name,
		&localPath,
		&remotePath,
		&mimeType,
		&size,
		&downloadStatus,
		&uploadStatus,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	resource := &Resource{
		ID:             id,
		URL:            url,
		Name:           name,
		LocalPath:      localPath.String,
		RemotePath:     remotePath.String,
		MimeType:       mimeType,
		Size:           size,
		DownloadStatus: Status(downloadStatus),
		UploadStatus:   Status(uploadStatus),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		resource.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		resource.UpdatedAt = updated
	}
	return resource, nil
}
