package report

import (
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "archive.db"))
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, store.Close(), test.ShouldBeNil)
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	doc := sampleDocument()

	test.That(t, store.SaveDocument(doc), test.ShouldBeNil)

	back, err := store.LoadDocument(doc.QueryID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, doc)
}

func TestStoreListQueryIDs(t *testing.T) {
	store := testStore(t)

	ids, err := store.ListQueryIDs()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldBeEmpty)

	first := sampleDocument()
	second := sampleDocument()
	second.QueryID = "q-456"
	second.GeneratedAt = second.GeneratedAt.Add(1e9)
	test.That(t, store.SaveDocument(first), test.ShouldBeNil)
	test.That(t, store.SaveDocument(second), test.ShouldBeNil)

	ids, err = store.ListQueryIDs()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ids, test.ShouldResemble, []string{"q-123", "q-456"})
}

func TestStoreDuplicateSave(t *testing.T) {
	store := testStore(t)
	doc := sampleDocument()

	test.That(t, store.SaveDocument(doc), test.ShouldBeNil)
	test.That(t, store.SaveDocument(doc), test.ShouldNotBeNil)
}

func TestStoreRemoveDocument(t *testing.T) {
	store := testStore(t)
	doc := sampleDocument()
	test.That(t, store.SaveDocument(doc), test.ShouldBeNil)

	other := sampleDocument()
	other.QueryID = "q-456"
	test.That(t, store.SaveDocument(other), test.ShouldBeNil)

	removed, err := store.RemoveDocument(doc.QueryID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, int64(len(doc.Records)))

	_, err = store.LoadDocument(doc.QueryID)
	test.That(t, err, test.ShouldNotBeNil)

	// Removal is idempotent; a second pass deletes nothing.
	removed, err = store.RemoveDocument(doc.QueryID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, removed, test.ShouldEqual, int64(0))

	// Other archived queries are untouched.
	loaded, err := store.LoadDocument(other.QueryID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded, test.ShouldResemble, other)
}

func TestStoreLoadMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.LoadDocument("no-such-query")
	test.That(t, err, test.ShouldNotBeNil)
}
