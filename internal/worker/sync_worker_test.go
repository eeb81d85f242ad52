package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zent/internal/amqp"
	"zent/internal/core"
	"zent/internal/ports"
	"zent/internal/ports/memory"
	"zent/internal/services"
	mock_services "zent/internal/services/mocks"
	sheetsmem "zent/internal/sheets/memory"
)

func TestHandleChangeMapsOperations(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	applier := mock_services.NewMockChangeApplier(ctrl)
	gomock.InOrder(
		applier.EXPECT().Apply(gomock.Any(), core.KindIncome, "a1", ports.SyncUpsert).Return(nil),
		applier.EXPECT().Apply(gomock.Any(), core.KindIncome, "a1", ports.SyncDelete).Return(nil),
	)
	w := NewSyncWorker(applier, nil, "ana")

	require.NoError(t, w.HandleChange(ctx, amqp.NewLedgerChangeMessage("ana", core.KindIncome, "a1", amqp.OpUpsert)))
	require.NoError(t, w.HandleChange(ctx, amqp.NewLedgerChangeMessage("ana", core.KindIncome, "a1", amqp.OpDelete)))
}

func TestHandleChangeDropsForeignAndInvalidMessages(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Apply expected
	w := NewSyncWorker(mock_services.NewMockChangeApplier(ctrl), nil, "ana")

	assert.NoError(t, w.HandleChange(ctx, amqp.NewLedgerChangeMessage("bob", core.KindExpense, "e1", amqp.OpUpsert)))
	assert.NoError(t, w.HandleChange(ctx, amqp.NewLedgerChangeMessage("ana", core.KindExpense, "", amqp.OpUpsert)))
	assert.NoError(t, w.HandleChange(ctx, &amqp.LedgerChangeMessage{UserID: "ana", Kind: "loan", EventID: "x", Op: amqp.OpUpsert}))
}

func TestHandleChangeReturnsApplyErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	applier := mock_services.NewMockChangeApplier(ctrl)
	applier.EXPECT().Apply(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("rate limited"))
	w := NewSyncWorker(applier, nil, "")

	err := w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage("anyone", core.KindTransfer, "t1", amqp.OpUpsert))
	assert.ErrorContains(t, err, "rate limited")
}

func TestStartupSyncCheckReconciles(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.AddIncome(ctx, core.IncomeEvent{
		Timestamp: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		Amount:    1500, Currency: core.MXN, ConvertedAmount: 1500, Account: "bbva", OriginalText: "$1,500.00",
	})
	require.NoError(t, err)

	mirror := sheetsmem.New()
	m := services.NewMirrorer(store, mirror)
	w := NewSyncWorker(m, m, "ana")

	require.NoError(t, w.StartupSyncCheck(ctx))
	rows, err := mirror.ListRows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.NoError(t, NewSyncWorker(m, nil, "ana").StartupSyncCheck(ctx))
}
