package state

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/meshplus/bitxhub-kit/log"
	"github.com/meshplus/bitxhub-kit/storage/leveldb"
	"github.com/stretchr/testify/require"
)

func prepareCheckpoint(t *testing.T) *Checkpoint {
	tmpDir, err := ioutil.TempDir("", "checkpoint")
	require.Nil(t, err)
	store, err := leveldb.New(tmpDir)
	require.Nil(t, err)
	t.Cleanup(func() {
		require.Nil(t, store.Close())
		os.RemoveAll(tmpDir)
	})

	return NewCheckpoint(store, log.NewWithModule("state"))
}

func TestCheckpoint(t *testing.T) {
	c := prepareCheckpoint(t)

	prev, err := c.Load()
	require.Nil(t, err)
	require.Nil(t, prev)

	require.Nil(t, c.Save(snapshot(10)))
	prev, err = c.Load()
	require.Nil(t, err)
	require.Equal(t, snapshot(10), *prev)

	// hook keeps only the latest one
	s := NewStore()
	s.OnReplace(c.Hook())
	s.Replace(snapshot(11))
	s.Replace(snapshot(12))
	prev, err = c.Load()
	require.Nil(t, err)
	require.Equal(t, snapshot(12), *prev)

	// lower, equal and higher heads are all accepted
	c.Compare(snapshot(5))
	c.Compare(snapshot(12))
	c.Compare(snapshot(13))
}
