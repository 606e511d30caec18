package distribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellLoadInitial(t *testing.T) {
	c := NewCell(42)
	snap := c.Load()

	assert.Equal(t, 42, snap.Value)
	assert.Equal(t, uint64(1), snap.Version)
	assert.False(t, snap.Closed)
}

func TestCellStoreBumpsVersion(t *testing.T) {
	c := NewCell("a")
	before := c.Load()

	c.Store("b")
	after := c.Load()

	assert.Equal(t, "b", after.Value)
	assert.Greater(t, after.Version, before.Version)
}

func TestCellChangedClosesOnStore(t *testing.T) {
	c := NewCell(1)
	snap := c.Load()

	select {
	case <-snap.Changed():
		t.Fatal("changed before any store")
	default:
	}

	c.Store(2)

	select {
	case <-snap.Changed():
	default:
		t.Fatal("changed did not close after store")
	}
}

func TestCellCloseDropsLaterStores(t *testing.T) {
	c := NewCell(1)
	snap := c.Load()

	c.Close()
	c.Store(2)

	after := c.Load()
	assert.True(t, after.Closed)
	assert.Equal(t, 1, after.Value)

	select {
	case <-snap.Changed():
	default:
		t.Fatal("changed did not close on close")
	}
}

func TestCellReadLoopCannotMissUpdate(t *testing.T) {
	c := NewCell(1)
	snap := c.Load()

	// a store between Load and the wait must leave the channel closed
	c.Store(2)

	select {
	case <-snap.Changed():
	default:
		t.Fatal("update between load and wait was lost")
	}
	assert.Equal(t, 2, c.Load().Value)
}
