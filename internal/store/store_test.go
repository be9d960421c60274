package store_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"feedrelay/internal/store"
	"feedrelay/internal/testsupport"
)

func TestRecordSeenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	link := "https://example.com/a"

	seen, err := st.HasSeen(ctx, link)
	if err != nil {
		t.Fatalf("HasSeen: %v", err)
	}
	if seen {
		t.Fatal("expected link unseen in fresh store")
	}

	if err := st.RecordSeen(ctx, link, "First Title"); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	if err := st.RecordSeen(ctx, link, "Second Title"); err != nil {
		t.Fatalf("RecordSeen repeat: %v", err)
	}

	seen, err = st.HasSeen(ctx, link)
	if err != nil {
		t.Fatalf("HasSeen after record: %v", err)
	}
	if !seen {
		t.Fatal("expected link seen after record")
	}

	count, err := st.ArticleCount(ctx)
	if err != nil {
		t.Fatalf("ArticleCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one article row, got %d", count)
	}
}

func TestRecordSeenTruncatesLongLink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	long := "https://example.com/" + strings.Repeat("x", 4000)
	if err := st.RecordSeen(ctx, long, strings.Repeat("t", 1000)); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	// The truncated form is what the ledger stores, so the same long link
	// must still register as seen.
	seen, err := st.HasSeen(ctx, long)
	if err != nil {
		t.Fatalf("HasSeen: %v", err)
	}
	if !seen {
		t.Fatal("expected truncated link to match on lookup")
	}
}

func TestUpsertResourceCreatesThenUpdates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	resource := &store.Resource{
		URL:            "https://example.com/v/1",
		Name:           "Foo.mp4",
		LocalPath:      "/data/Foo.mp4",
		RemotePath:     "/relay/Foo.mp4",
		DownloadStatus: store.StatusUnknown,
		UploadStatus:   store.StatusUnknown,
	}
	if err := st.UpsertResource(ctx, resource); err != nil {
		t.Fatalf("UpsertResource: %v", err)
	}
	if resource.ID == 0 {
		t.Fatal("expected identity assigned on insert")
	}
	firstID := resource.ID

	resource.Size = 1234
	resource.MimeType = "video/mp4"
	resource.DownloadStatus = store.StatusSuccess
	if err := st.UpsertResource(ctx, resource); err != nil {
		t.Fatalf("UpsertResource update: %v", err)
	}
	if resource.ID != firstID {
		t.Fatalf("expected same row on update, id %d became %d", firstID, resource.ID)
	}

	stored, err := st.FindResource(ctx, resource.URL, resource.Name)
	if err != nil {
		t.Fatalf("FindResource: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored resource")
	}
	if stored.Size != 1234 || stored.MimeType != "video/mp4" || stored.DownloadStatus != store.StatusSuccess {
		t.Fatalf("unexpected stored fields: %+v", stored)
	}
}

func TestConcurrentUpsertSamePairYieldsOneRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r := &store.Resource{
				URL:  "https://example.com/v/race",
				Name: "Race.mp4",
				Size: int64(n),
			}
			if err := st.UpsertResource(ctx, r); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	all, err := st.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one row for the contested pair, got %d", len(all))
	}
}

func TestSameNameDifferentURLAreDistinctRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, url := range []string{"https://a.example/1", "https://b.example/1"} {
		r := &store.Resource{URL: url, Name: "Shared.mp4"}
		if err := st.UpsertResource(ctx, r); err != nil {
			t.Fatalf("UpsertResource: %v", err)
		}
	}
	all, err := st.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two rows keyed by (url, name), got %d", len(all))
	}
}

func TestFindResourceByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedResource(t, st, &store.Resource{Name: "Local.mp4", DownloadStatus: store.StatusSuccess})

	found, err := st.FindResourceByName(ctx, "Local.mp4")
	if err != nil {
		t.Fatalf("FindResourceByName: %v", err)
	}
	if found == nil || found.Name != "Local.mp4" {
		t.Fatalf("expected resource by name, got %#v", found)
	}

	missing, err := st.FindResourceByName(ctx, "Absent.mp4")
	if err != nil {
		t.Fatalf("FindResourceByName absent: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent name, got %#v", missing)
	}
}

func TestResourcesByUploadStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i, status := range []store.Status{store.StatusUnknown, store.StatusFail, store.StatusSuccess} {
		testsupport.SeedResource(t, st, &store.Resource{
			URL:            fmt.Sprintf("https://example.com/%d", i),
			Name:           fmt.Sprintf("File-%d.mp4", i),
			DownloadStatus: store.StatusSuccess,
			UploadStatus:   status,
		})
	}

	pending, err := st.ResourcesByUploadStatus(ctx, store.StatusUnknown, store.StatusFail)
	if err != nil {
		t.Fatalf("ResourcesByUploadStatus: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending resources, got %d", len(pending))
	}
	for _, r := range pending {
		if r.UploadStatus == store.StatusSuccess {
			t.Fatalf("uploaded resource leaked into sweep: %+v", r)
		}
	}

	stats, err := st.ResourceStats(ctx)
	if err != nil {
		t.Fatalf("ResourceStats: %v", err)
	}
	if stats[store.StatusSuccess] != 1 || stats[store.StatusUnknown] != 1 || stats[store.StatusFail] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestCloneDropsIdentity(t *testing.T) {
	original := &store.Resource{
		ID:             7,
		URL:            "https://example.com/v/1",
		Name:           "Foo.mp4",
		DownloadStatus: store.StatusSuccess,
	}
	clone := original.Clone()
	if clone.ID != 0 {
		t.Fatalf("expected clone without identity, got id %d", clone.ID)
	}
	if clone.URL != original.URL || clone.DownloadStatus != original.DownloadStatus {
		t.Fatalf("expected field copy, got %+v", clone)
	}
}

func TestMigrationsPreserveRowsOnReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedResource(t, st, &store.Resource{Name: "Keep.mp4"})
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Keep.mp4" {
		t.Fatalf("expected row preserved across reopen, got %#v", all)
	}
}
