package services

import (
	"testing"

	"bounty-escrow-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordEventAssignsIDAndDetail(t *testing.T) {
	db := newTestDB(t)

	ev := &models.EscrowEvent{
		Type:     models.EventCompleted,
		BountyID: 7,
		Solver:   "bob",
		Amount:   1250000,
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return recordEvent(tx, ev)
	}))

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "bounty #7 completed: 1,250,000 paid out to bob", ev.Detail)

	var stored models.EscrowEvent
	require.NoError(t, db.First(&stored, "id = ?", ev.ID).Error)
	assert.Equal(t, models.EventCompleted, stored.Type)
}

func TestRecordEventKeepsExplicitDetail(t *testing.T) {
	db := newTestDB(t)

	ev := &models.EscrowEvent{
		Type:     models.EventPosted,
		BountyID: 1,
		Amount:   100,
		Detail:   "custom detail",
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return recordEvent(tx, ev)
	}))
	assert.Equal(t, "custom detail", ev.Detail)
}
