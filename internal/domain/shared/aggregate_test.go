package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	BaseDomainEvent
}

func TestBaseAggregateRoot_Versioning(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.Equal(t, 1, a.GetVersion())
	assert.Equal(t, 0, a.PersistedVersion())

	a.MarkPersisted()
	a.IncrementVersion()
	a.IncrementVersion()

	assert.Equal(t, 3, a.GetVersion())
	assert.Equal(t, 1, a.PersistedVersion())
}

func TestBaseAggregateRoot_DomainEvents(t *testing.T) {
	a := NewBaseAggregateRoot()
	a.AddDomainEvent(&testEvent{})
	a.AddDomainEvent(&testEvent{})
	assert.Len(t, a.GetDomainEvents(), 2)

	a.ClearDomainEvents()
	assert.Empty(t, a.GetDomainEvents())
}

func TestSiteAggregateRoot(t *testing.T) {
	siteID := NewBaseEntity().ID
	a := NewSiteAggregateRoot(siteID)
	assert.NotEqual(t, a.ID, a.SiteID)
	assert.Equal(t, 1, a.Version)
	assert.True(t, a.BelongsTo(siteID))
	assert.False(t, a.BelongsTo(a.ID))

	var orphan SiteAggregateRoot
	assert.False(t, orphan.BelongsTo(orphan.SiteID))
	assert.True(t, orphan.IsZero())
}

func TestBaseEntity_Touch(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := Now
	Now = func() time.Time { return fixed }
	t.Cleanup(func() { Now = orig })

	e := BaseEntity{}
	e.Touch()
	assert.Equal(t, fixed, e.UpdatedAt)
	assert.Equal(t, fixed, NewBaseEntity().CreatedAt)
}
