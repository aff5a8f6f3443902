package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReadingService(f *fixture) *ReadingService {
	svc := NewReadingService(f.db)
	svc.now = fixedClock
	return svc
}

func TestReadingService_List(t *testing.T) {
	f := newFixture(t)
	svc := newTestReadingService(f)
	ctx := context.Background()

	createReading(t, f.db, f.meter.ID, 100, fixedNow.Add(-2*time.Hour))
	createReading(t, f.db, f.meter.ID, 120, fixedNow.Add(-1*time.Hour))
	createReading(t, f.db, f.otherMeter.ID, 7, fixedNow.Add(-1*time.Hour))

	t.Run("newest first within scope", func(t *testing.T) {
		readings, err := svc.List(ctx, f.as(f.tenant), nil, 0)
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, int64(120), readings[0].Reading)
		assert.Equal(t, int64(100), readings[1].Reading)
	})

	t.Run("admin sees all", func(t *testing.T) {
		readings, err := svc.List(ctx, f.as(f.admin), nil, 0)
		require.NoError(t, err)
		assert.Len(t, readings, 3)
	})

	t.Run("meter filter and limit", func(t *testing.T) {
		readings, err := svc.List(ctx, f.as(f.admin), &f.meter.ID, 1)
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, int64(120), readings[0].Reading)
	})

	t.Run("meter outside the scope", func(t *testing.T) {
		_, err := svc.List(ctx, f.as(f.tenant), &f.otherMeter.ID, 0)
		assertForbidden(t, err)

		_, err = svc.List(ctx, f.as(f.owner), &f.otherMeter.ID, 0)
		assertForbidden(t, err)
	})

	t.Run("unknown meter", func(t *testing.T) {
		missing := uint(9999)
		_, err := svc.List(ctx, f.as(f.tenant), &missing, 0)
		assertNotFound(t, err, "meter")
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := svc.List(ctx, f.as(f.admin), nil, -1)
		assertValidation(t, err, "limit")
	})
}

func TestReadingService_Latest(t *testing.T) {
	f := newFixture(t)
	svc := newTestReadingService(f)
	ctx := context.Background()

	_, err := svc.Latest(ctx, f.as(f.tenant), f.meter.ID)
	assertNotFound(t, err, "reading")

	createReading(t, f.db, f.meter.ID, 300, fixedNow.Add(-time.Hour))
	createReading(t, f.db, f.meter.ID, 200, fixedNow.Add(-3*time.Hour))

	latest, err := svc.Latest(ctx, f.as(f.owner), f.meter.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), latest.Reading, "latest is by timestamp, not insertion order")

	_, err = svc.Latest(ctx, f.as(f.tenant), f.otherMeter.ID)
	assertForbidden(t, err)

	_, err = svc.Latest(ctx, f.as(f.admin), 9999)
	assertNotFound(t, err, "meter")
}

func TestReadingService_Create(t *testing.T) {
	f := newFixture(t)
	svc := newTestReadingService(f)
	ctx := context.Background()

	t.Run("tenant submits", func(t *testing.T) {
		reading, err := svc.Create(ctx, f.as(f.tenant), f.meter.ID, 1234)
		require.NoError(t, err)
		assert.Equal(t, int64(1234), reading.Reading)
		assert.False(t, reading.IsIoT)
		require.NotNil(t, reading.SubmittedByID)
		assert.Equal(t, f.tenant.ID, *reading.SubmittedByID)
		assert.True(t, fixedNow.Equal(reading.Timestamp))
	})

	t.Run("admin submits anywhere", func(t *testing.T) {
		_, err := svc.Create(ctx, f.as(f.admin), f.otherMeter.ID, 5)
		require.NoError(t, err)
	})

	t.Run("owner may not submit", func(t *testing.T) {
		_, err := svc.Create(ctx, f.as(f.owner), f.meter.ID, 5)
		assertForbidden(t, err)
	})

	t.Run("tenant outside scope", func(t *testing.T) {
		_, err := svc.Create(ctx, f.as(f.tenant), f.otherMeter.ID, 5)
		assertForbidden(t, err)
	})

	t.Run("negative value", func(t *testing.T) {
		_, err := svc.Create(ctx, f.as(f.tenant), f.meter.ID, -1)
		assertValidation(t, err, "reading")
	})

	t.Run("unknown meter", func(t *testing.T) {
		_, err := svc.Create(ctx, f.as(f.admin), 9999, 1)
		assertNotFound(t, err, "meter")
	})
}

func TestReadingService_RecordDevice(t *testing.T) {
	f := newFixture(t)
	svc := newTestReadingService(f)
	ctx := context.Background()

	at := fixedNow.Add(-30 * time.Minute)
	reading, err := svc.RecordDevice(ctx, f.as(f.admin), " WAT-001 ", 42, &at)
	require.NoError(t, err)
	assert.True(t, reading.IsIoT)
	assert.Nil(t, reading.SubmittedByID)
	assert.Equal(t, f.meter.ID, reading.MeterID)
	assert.True(t, at.Equal(reading.Timestamp))

	reading, err = svc.RecordDevice(ctx, f.as(f.admin), "WAT-001", 43, nil)
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(reading.Timestamp))

	_, err = svc.RecordDevice(ctx, f.as(f.tenant), "WAT-001", 1, nil)
	assertForbidden(t, err)

	_, err = svc.RecordDevice(ctx, f.as(f.admin), "NOPE", 1, nil)
	assertNotFound(t, err, "meter")

	_, err = svc.RecordDevice(ctx, f.as(f.admin), "", 1, nil)
	assertValidation(t, err, "meterIdentifier")
}
