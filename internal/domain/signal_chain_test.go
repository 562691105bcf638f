package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

func TestSortChain_OrderThenInsertion(t *testing.T) {
	items := []*SignalChainItem{
		{ID: "late-tie", Order: 1, Seq: 5},
		{ID: "first", Order: 0, Seq: 9},
		{ID: "early-tie", Order: 1, Seq: 2},
		{ID: "after-gap", Order: 7, Seq: 1},
	}

	SortChain(items)

	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.ID
	}
	assert.Equal(t, []string{"first", "early-tie", "late-tie", "after-gap"}, got)
}

func TestValidateReorder(t *testing.T) {
	current := []string{"1", "2", "3"}

	assert.NoError(t, ValidateReorder(current, []string{"3", "1", "2"}))
	assert.NoError(t, ValidateReorder(nil, nil))

	cases := map[string][]string{
		"missing id":    {"3", "1"},
		"extra id":      {"3", "1", "2", "4"},
		"foreign id":    {"3", "1", "9"},
		"duplicate id":  {"3", "3", "1"},
		"duplicate pad": {"1", "2", "3", "3"},
	}
	for name, requested := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateReorder(current, requested)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidArgument))
		})
	}
}

func TestChainLabels(t *testing.T) {
	gear := &Gear{Name: "DS-1", Brand: &Brand{Name: "Boss"}}
	items := []*SignalChainItem{
		{OwnedGearID: "og-1", OwnedGear: &OwnedGear{Gear: gear}},
		{OwnedGearID: "og-2", OwnedGear: &OwnedGear{Nickname: "Old Faithful"}},
		{OwnedGearID: "og-3"},
	}

	assert.Equal(t, []string{"Boss DS-1", "Old Faithful", "og-3"}, ChainLabels(items))
}
