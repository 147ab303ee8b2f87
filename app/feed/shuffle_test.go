package feed

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
)

func sequentialIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%02d", i)
	}
	return ids
}

func TestShuffleSeedDeterministic(t *testing.T) {
	a := shuffleSeed("session-1", 7)
	b := shuffleSeed("session-1", 7)
	if a != b {
		t.Errorf("Expected identical seeds for identical inputs, got %d and %d", a, b)
	}

	if shuffleSeed("session-1", 7) == shuffleSeed("session-2", 7) {
		t.Error("Expected different sessions to produce different seeds")
	}
	if shuffleSeed("session-1", 7) == shuffleSeed("session-1", 8) {
		t.Error("Expected different epochs to produce different seeds")
	}
}

func TestTieredShuffleDeterministic(t *testing.T) {
	ids := sequentialIDs(20)
	seed := shuffleSeed("session-1", 1)

	first := tieredShuffle(ids, seed, 3, 4)
	second := tieredShuffle(ids, seed, 3, 4)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output for identical seed, got %v and %v", first, second)
	}
}

func TestTieredShuffleFixedTopStable(t *testing.T) {
	ids := sequentialIDs(20)

	for epoch := int64(1); epoch <= 10; epoch++ {
		out := tieredShuffle(ids, shuffleSeed("s", epoch), 3, 4)
		for i := 0; i < 3; i++ {
			if out[i] != ids[i] {
				t.Fatalf("Epoch %d: expected position %d to stay %s, got %s", epoch, i, ids[i], out[i])
			}
		}
	}
}

func TestTieredShuffleLightWindowContained(t *testing.T) {
	ids := sequentialIDs(20)

	for epoch := int64(1); epoch <= 10; epoch++ {
		out := tieredShuffle(ids, shuffleSeed("s", epoch), 3, 4)

		window := append([]string(nil), out[3:7]...)
		expected := append([]string(nil), ids[3:7]...)
		sort.Strings(window)
		sort.Strings(expected)
		if !reflect.DeepEqual(window, expected) {
			t.Fatalf("Epoch %d: light window ids leaked, got %v want members %v", epoch, out[3:7], ids[3:7])
		}
	}
}

func TestTieredShufflePreservesMembership(t *testing.T) {
	ids := sequentialIDs(17)
	out := tieredShuffle(ids, 42, 3, 4)

	if len(out) != len(ids) {
		t.Fatalf("Expected %d ids, got %d", len(ids), len(out))
	}

	sortedOut := append([]string(nil), out...)
	sortedIn := append([]string(nil), ids...)
	sort.Strings(sortedOut)
	sort.Strings(sortedIn)
	if !reflect.DeepEqual(sortedOut, sortedIn) {
		t.Error("Expected shuffle to be a permutation of the input")
	}
}

func TestTieredShuffleDoesNotMutateInput(t *testing.T) {
	ids := sequentialIDs(15)
	original := append([]string(nil), ids...)

	tieredShuffle(ids, 99, 3, 4)

	if !reflect.DeepEqual(ids, original) {
		t.Error("Expected input slice to be untouched")
	}
}

func TestTieredShuffleShortLists(t *testing.T) {
	// At or below the fixed top the order never changes.
	for n := 0; n <= 3; n++ {
		ids := sequentialIDs(n)
		out := tieredShuffle(ids, 7, 3, 4)
		if !reflect.DeepEqual(out, ids) {
			t.Errorf("Expected %d-element list to keep its order, got %v", n, out)
		}
	}

	// Between fixedTop and fixedTop+lightWindow the tail band is empty.
	ids := sequentialIDs(5)
	out := tieredShuffle(ids, 7, 3, 4)
	if len(out) != 5 {
		t.Fatalf("Expected 5 ids, got %d", len(out))
	}
	for i := 0; i < 3; i++ {
		if out[i] != ids[i] {
			t.Errorf("Expected position %d to stay %s, got %s", i, ids[i], out[i])
		}
	}
}
