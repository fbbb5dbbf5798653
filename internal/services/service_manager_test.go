package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/events"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	store := newFakeStore()
	sm := NewServiceManager(store, events.NewMockEventPublisher(discardLogger()), nil, discardLogger(), validator.New(),
		ServiceManagerConfig{Expiry: ExpirySchedulerConfig{Interval: time.Hour, BatchSize: 10}})

	assert.Error(t, sm.HealthCheck(t.Context()), "not initialized yet")
	assert.Panics(t, func() { sm.Session() })

	require.NoError(t, sm.Initialize(t.Context()))
	require.NoError(t, sm.Initialize(t.Context()))
	assert.NotNil(t, sm.Session())
	assert.NotNil(t, sm.Answers())
	assert.NotNil(t, sm.Export())
	require.NotNil(t, sm.Scheduler())
	assert.Equal(t, 10, sm.Scheduler().config.BatchSize)
	assert.NoError(t, sm.HealthCheck(t.Context()))

	require.NoError(t, sm.Shutdown(t.Context()))
	assert.Error(t, sm.HealthCheck(t.Context()))
	assert.NoError(t, sm.Shutdown(t.Context()))
}

func TestServiceManager_RejectsNegativeSweepConfig(t *testing.T) {
	sm := NewServiceManager(newFakeStore(), nil, nil, discardLogger(), validator.New(),
		ServiceManagerConfig{Expiry: ExpirySchedulerConfig{Interval: -time.Second}})

	assert.Error(t, sm.Initialize(t.Context()))
}
