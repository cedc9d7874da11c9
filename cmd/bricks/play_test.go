package main

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"bricks/internal/game"
)

func TestNextAssetFollowsChain(t *testing.T) {
	st := game.DefaultState(time.Now())
	a, ok := nextAsset(st)
	require.True(t, ok)
	require.Equal(t, "rolex", a.ID)

	st.OwnedAssets["rolex"] = true
	a, ok = nextAsset(st)
	require.True(t, ok)
	require.Equal(t, "designer", a.ID)

	for _, asset := range game.Assets {
		st.OwnedAssets[asset.ID] = true
	}
	_, ok = nextAsset(st)
	require.False(t, ok)
}

func TestNextStaffIsCheapestUnhired(t *testing.T) {
	st := game.DefaultState(time.Now())
	s, ok := nextStaff(st)
	require.True(t, ok)
	require.Equal(t, "intern", s.ID)

	st.OwnedStaff["intern"] = true
	s, ok = nextStaff(st)
	require.True(t, ok)
	require.Equal(t, "mod", s.ID)

	for _, member := range game.StaffRoster {
		st.OwnedStaff[member.ID] = true
	}
	_, ok = nextStaff(st)
	require.False(t, ok)
}

func TestShopKeysBound(t *testing.T) {
	press := func(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }
	require.True(t, key.Matches(press('b'), keys.Asset))
	require.True(t, key.Matches(press('h'), keys.Hire))
	require.True(t, key.Matches(press('5'), keys.Upgrade))
	require.False(t, key.Matches(press('6'), keys.Upgrade))
}
