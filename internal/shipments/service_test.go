package shipments

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/dbtest"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

func newTestService(t *testing.T) (*service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "shipments-test", Output: &bytes.Buffer{}}))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }
	return impl, repo
}

func seedShipment(t *testing.T, repo *Repository, orderID string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &models.Shipment{
		OrderID: orderID,
		Status:  enums.ShipmentStatusPending,
	}))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestGetByOrderNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByOrder(context.Background(), "ORD404")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetByOrder(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateShippingInfoKeepsUnsetFields(t *testing.T) {
	svc, repo := newTestService(t)
	seedShipment(t, repo, "ORD1")
	ctx := context.Background()

	carrier := "DHL"
	tracking := " TRK-1 "
	_, err := svc.UpdateShippingInfo(ctx, "ORD1", ShippingInfoInput{Carrier: &carrier, TrackingNumber: &tracking})
	require.NoError(t, err)

	sender := "Warehouse 7"
	got, err := svc.UpdateShippingInfo(ctx, "ORD1", ShippingInfoInput{SenderAddress: &sender})
	require.NoError(t, err)
	require.NotNil(t, got.Carrier)
	assert.Equal(t, "DHL", *got.Carrier)
	assert.Equal(t, "TRK-1", *got.TrackingNumber)
	assert.Equal(t, "Warehouse 7", *got.SenderAddress)
	assert.Equal(t, enums.ShipmentStatusPending, got.Status)
}

func TestUpdateStatusStampsTimes(t *testing.T) {
	svc, repo := newTestService(t)
	seedShipment(t, repo, "ORD2")
	ctx := context.Background()

	got, err := svc.UpdateStatus(ctx, "ORD2", "shipped")
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusShipped, got.Status)
	require.NotNil(t, got.ShippedAt)
	assert.Nil(t, got.DeliveredAt)

	got, err = svc.UpdateStatus(ctx, "ORD2", "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, got.DeliveredAt.Equal(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)))
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc, repo := newTestService(t)
	seedShipment(t, repo, "ORD3")

	_, err := svc.UpdateStatus(context.Background(), "ORD3", "lost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRepositoryUniquePerOrderAndDelete(t *testing.T) {
	_, repo := newTestService(t)
	ctx := context.Background()
	seedShipment(t, repo, "ORD4")

	err := repo.Create(ctx, &models.Shipment{OrderID: "ORD4", Status: enums.ShipmentStatusPending})
	require.Error(t, err)

	require.NoError(t, repo.DeleteByOrderID(ctx, "ORD4"))
	require.NoError(t, repo.DeleteByOrderID(ctx, "ORD4"))
	_, err = repo.FindByOrderID(ctx, "ORD4")
	require.Error(t, err)
}

func TestLogisticsQueuesAndStats(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"ORD10", "ORD11", "ORD12", "ORD13"} {
		seedShipment(t, repo, id)
	}

	shippedAt := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, "ORD11", enums.ShipmentStatusShipped, shippedAt))
	require.NoError(t, repo.UpdateStatus(ctx, "ORD12", enums.ShipmentStatusShipped, shippedAt.Add(time.Hour)))
	require.NoError(t, repo.UpdateStatus(ctx, "ORD13", enums.ShipmentStatusDelivered, shippedAt))

	pending, err := svc.ListPending(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Total)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "ORD10", pending.Items[0].OrderID)

	transit, err := svc.ListInTransit(ctx, pagination.Params{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, transit.Total)
	require.Len(t, transit.Items, 1)
	assert.Equal(t, "ORD12", transit.Items[0].OrderID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 1, Shipped: 2, Delivered: 1, Total: 4}, stats)
}

func TestStatsWithNoShipments(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
