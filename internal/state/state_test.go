package state

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_Defaults(t *testing.T) {
	store := NewStore()

	snap := store.Snapshot()
	require.Equal(t, "", snap.TrackName)
	require.Equal(t, "", snap.ArtistName)
	require.Equal(t, "", snap.ContainerName)
	require.False(t, snap.IsPlaying)
	require.Nil(t, snap.SessionGroupID)

	_, _, ok := store.Session()
	require.False(t, ok)
}

func TestStore_SetNowPlaying(t *testing.T) {
	store := NewStore()
	store.SetNowPlaying("Harvest Moon", "Neil Young", "Harvest Moon")

	snap := store.Snapshot()
	require.Equal(t, "Harvest Moon", snap.TrackName)
	require.Equal(t, "Neil Young", snap.ArtistName)
	require.Equal(t, "Harvest Moon", snap.ContainerName)
}

func TestStore_TogglePlaying(t *testing.T) {
	store := NewStore()

	require.True(t, store.TogglePlaying())
	require.True(t, store.Snapshot().IsPlaying)

	require.False(t, store.TogglePlaying())
	require.False(t, store.Snapshot().IsPlaying)
}

func TestStore_SessionRequiresBothParts(t *testing.T) {
	store := NewStore()

	store.SetSession("tok-1", "")
	_, _, ok := store.Session()
	require.False(t, ok)

	store.SetSession("tok-1", "grp-1")
	token, groupID, ok := store.Session()
	require.True(t, ok)
	require.Equal(t, "tok-1", token)
	require.Equal(t, "grp-1", groupID)
}

func TestStore_SessionReplaceSupersedes(t *testing.T) {
	store := NewStore()
	store.SetSession("tok-1", "grp-1")
	store.SetSession("tok-2", "grp-2")

	token, groupID, ok := store.Session()
	require.True(t, ok)
	require.Equal(t, "tok-2", token)
	require.Equal(t, "grp-2", groupID)
}

func TestSnapshot_NeverSerializesToken(t *testing.T) {
	store := NewStore()
	store.SetSession("secret-token", "grp-1")

	raw, err := json.Marshal(store.Snapshot())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-token")
	require.Contains(t, string(raw), `"session_group_id":"grp-1"`)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.SetNowPlaying("track", "artist", "container")
			store.SetPlaying(true)
		}()
		go func() {
			defer wg.Done()
			snap := store.Snapshot()
			// The metadata triple is written as one unit, so a reader sees
			// either all three fields or none of them.
			if snap.TrackName != "" {
				require.Equal(t, "artist", snap.ArtistName)
				require.Equal(t, "container", snap.ContainerName)
			}
		}()
	}
	wg.Wait()
}
