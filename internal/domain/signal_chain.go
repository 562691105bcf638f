package domain

import (
	"fmt"
	"sort"
	"time"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

// SignalChainItem places one piece of owned gear in a setup's chain together
// with the settings it is used at. An owned gear appears at most once per
// setup.
//
// Order need not be contiguous: removals leave gaps. Reads are ascending by
// Order with ties broken by Seq, the store-assigned insertion sequence.
type SignalChainItem struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	OwnedGear   *OwnedGear `json:"owned_gear,omitempty"` // pre-joined on read
	Settings    Settings   `json:"settings"`
	ID          string     `json:"id"`
	SetupID     string     `json:"setup_id"`
	OwnedGearID string     `json:"owned_gear_id"`
	Notes       string     `json:"notes,omitempty"`
	Order       int        `json:"order"`
	Seq         int64      `json:"-"`
}

// SortChain orders items for reading.
func SortChain(items []*SignalChainItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Seq < items[j].Seq
	})
}

// ValidateReorder checks that requested names exactly the item ids in current,
// each once. Duplicates are rejected because they cannot account for every
// item.
func ValidateReorder(current []string, requested []string) error {
	want := make(map[string]struct{}, len(current))
	for _, id := range current {
		want[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			return domainerrors.InvalidField("item_ids", fmt.Sprintf("item %s listed more than once", id))
		}
		seen[id] = struct{}{}
		if _, ok := want[id]; !ok {
			return domainerrors.InvalidField("item_ids", fmt.Sprintf("item %s is not in this signal chain", id))
		}
	}

	if len(seen) != len(want) {
		return domainerrors.InvalidField("item_ids",
			fmt.Sprintf("expected %d items, got %d", len(want), len(seen)))
	}
	return nil
}

// ChainLabels returns the gear labels in read order, for logs and summaries.
func ChainLabels(items []*SignalChainItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.OwnedGear != nil {
			out = append(out, it.OwnedGear.Label())
		} else {
			out = append(out, it.OwnedGearID)
		}
	}
	return out
}
