package repository

import (
	"context"
	"testing"
	"time"

	"iplocator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestVisitStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewVisitStore(db)
	ctx := context.Background()

	visit := &models.Visit{
		IPAddress: "203.0.113.7",
		City:      ptr("Philadelphia"),
		Latitude:  ptr(40.1),
		Longitude: ptr(-75.1),
	}
	require.NoError(t, store.Create(ctx, visit))
	require.NotZero(t, visit.ID)
	assert.False(t, visit.VisitedAt.IsZero())

	t.Run("FindByID", func(t *testing.T) {
		found, err := store.FindByID(ctx, visit.ID)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.7", found.IPAddress)
		assert.InDelta(t, 40.1, *found.Latitude, 1e-7)
		assert.Nil(t, found.GPSPermissionStatus)
	})

	t.Run("FindByID Not Found", func(t *testing.T) {
		_, err := store.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SetPermission Only Touches Status", func(t *testing.T) {
		other := &models.Visit{IPAddress: "198.51.100.1"}
		require.NoError(t, store.Create(ctx, other))

		require.NoError(t, store.SetPermission(ctx, other.ID, models.PermissionDenied, ptr("User denied Geolocation")))

		found, err := store.FindByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PermissionDenied, *found.GPSPermissionStatus)
		assert.Equal(t, "User denied Geolocation", *found.GPSErrorMessage)
		assert.Nil(t, found.GPSLatitude)
		assert.Nil(t, found.GPSCity)
		assert.Nil(t, found.LocationDistance)
	})

	t.Run("SetPermission Unknown Visit", func(t *testing.T) {
		err := store.SetPermission(ctx, 9999, models.PermissionPrompt, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveGPSFix", func(t *testing.T) {
		err := store.SaveGPSFix(ctx, visit.ID, GPSFix{
			Latitude:         0,
			Longitude:        0,
			Accuracy:         ptr(12.5),
			City:             ptr("Null Island"),
			CountryCode:      ptr("XX"),
			PermissionStatus: models.PermissionGranted,
			DistanceKm:       8500.25,
		})
		require.NoError(t, err)

		found, err := store.FindByID(ctx, visit.ID)
		require.NoError(t, err)
		require.NotNil(t, found.GPSLatitude)
		assert.Equal(t, 0.0, *found.GPSLatitude)
		assert.Equal(t, 0.0, *found.GPSLongitude)
		assert.InDelta(t, 12.5, *found.GPSAccuracy, 1e-9)
		assert.Equal(t, "Null Island", *found.GPSCity)
		assert.Nil(t, found.GPSRegion)
		assert.Nil(t, found.GPSErrorMessage)
		assert.Equal(t, models.PermissionGranted, *found.GPSPermissionStatus)
		assert.InDelta(t, 8500.25, *found.LocationDistance, 1e-6)
		// IP-derived fields are untouched.
		assert.Equal(t, "Philadelphia", *found.City)
	})

	t.Run("SetPermission Clears Fix", func(t *testing.T) {
		require.NoError(t, store.SetPermission(ctx, visit.ID, models.PermissionDenied, ptr("User denied Geolocation")))

		found, err := store.FindByID(ctx, visit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PermissionDenied, *found.GPSPermissionStatus)
		assert.Equal(t, "User denied Geolocation", *found.GPSErrorMessage)
		assert.Nil(t, found.GPSLatitude)
		assert.Nil(t, found.GPSLongitude)
		assert.Nil(t, found.GPSAccuracy)
		assert.Nil(t, found.GPSCity)
		assert.Nil(t, found.GPSCountryCode)
		assert.Nil(t, found.LocationDistance)
		assert.Equal(t, "Philadelphia", *found.City)
	})
}

func TestVisitStore_List(t *testing.T) {
	db := setupTestDB(t)
	store := NewVisitStore(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		v := &models.Visit{IPAddress: "10.0.0.1", VisitedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.Create(ctx, v))
	}

	visits, total, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, visits, 2)
	assert.True(t, visits[0].VisitedAt.After(visits[1].VisitedAt))

	visits, total, err = store.List(ctx, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, visits, 1)
}
