package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRejectsEmptyEntry(t *testing.T) {
	r := &Repo{}
	_, _, err := r.Record(context.Background(), Entry{Key: "k"})
	assert.ErrorIs(t, err, ErrNoLines)
}

// Needs a Postgres; set POSTGRES_TEST_DSN.
func TestRecordIdempotent(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	r := &Repo{DB: db}
	require.NoError(t, r.EnsureSchema(ctx))

	entry := Entry{
		Key:       uuid.NewString(),
		SessionID: "sess",
		Lines: []Line{
			{ProductID: "a", Name: "Rose", Qty: 2, Price: decimal.RequireFromString("120.50")},
			{ProductID: "b", Name: "Bear", Qty: 1, Price: decimal.NewFromInt(300)},
		},
	}
	id, existed, err := r.Record(ctx, entry)
	require.NoError(t, err)
	assert.False(t, existed)

	again, existed, err := r.Record(ctx, entry)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, id, again)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "541.00", got.Total.StringFixed(2))
	assert.Equal(t, 3, got.ItemCount)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "a", got.Lines[0].ProductID)

	prev, found, err := r.Lookup(ctx, entry.Key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, prev.ID)
	assert.Equal(t, got.Lines, prev.Lines)

	_, found, err = r.Lookup(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)
}
