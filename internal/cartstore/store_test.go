package cartstore

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"glowloops/internal/domain"
	"glowloops/internal/localstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func newTestStore(t *testing.T, storage localstore.Storage, opts ...Option) *Store {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	base := []Option{WithClock(clock.Now), WithIDGenerator(seqIDs())}
	return Open(storage, append(base, opts...)...)
}

func hoop(qty int) domain.LineItemInput {
	return domain.LineItemInput{ProductID: "p1", Name: "Halo Hoops", UnitPrice: dec("20"), Quantity: qty}
}

type failingStorage struct{}

func (failingStorage) Read(string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStorage) Write(string, []byte) error  { return errors.New("quota exceeded") }
func (failingStorage) Delete(string) error         { return nil }

func TestAddItem_MergesSameKey(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())

	first, err := s.AddItem(hoop(2))
	require.NoError(t, err)
	second, err := s.AddItem(hoop(3))
	require.NoError(t, err)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddItem_DistinctVariantsAndAddOns(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())

	red := hoop(1)
	red.Color = "red"
	blue := hoop(1)
	blue.Color = "blue"
	withWarranty := hoop(1)
	withWarranty.Color = "red"
	withWarranty.AddOn = &domain.AddOn{ID: "care-1y", Name: "1y care", Price: dec("5")}

	for _, in := range []domain.LineItemInput{red, blue, withWarranty, red} {
		_, err := s.AddItem(in)
		require.NoError(t, err)
	}

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[0].Quantity)
	ids := map[string]bool{}
	for _, it := range items {
		ids[it.ID] = true
	}
	assert.Len(t, ids, 3, "line ids must be unique")
}

func TestAddItem_RejectsInvalidInputWithoutMutating(t *testing.T) {
	storage := localstore.NewMemoryStorage()
	s := newTestStore(t, storage)

	_, err := s.AddItem(domain.LineItemInput{ProductID: "p1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
	_, err = s.AddItem(domain.LineItemInput{ProductID: "p1", Quantity: 1, UnitPrice: dec("-3")})
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)

	assert.Empty(t, s.Items())
	_, err = storage.Read(StorageKey)
	assert.ErrorIs(t, err, localstore.ErrNotExist, "nothing should be persisted")
}

func TestAddItem_MaxLineQuantity(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage(), WithMaxLineQuantity(10))

	line, err := s.AddItem(hoop(8))
	require.NoError(t, err)

	_, err = s.AddItem(hoop(3))
	var ile *domain.InvalidLineItemError
	require.ErrorAs(t, err, &ile)
	assert.Equal(t, "quantity", ile.Field)
	assert.Equal(t, 8, s.Items()[0].Quantity)

	assert.ErrorIs(t, s.UpdateItemQuantity(line.ID, 11), domain.ErrInvalidLineItem)
	require.NoError(t, s.UpdateItemQuantity(line.ID, 10))
	assert.Equal(t, 10, s.TotalItemCount())

	_, err = s.AddItem(domain.LineItemInput{ProductID: "p2", Quantity: 11})
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

func TestAddItem_MergeOverflowIsRejected(t *testing.T) {
	storage := localstore.NewMemoryStorage()
	s := newTestStore(t, storage)

	_, err := s.AddItem(domain.LineItemInput{ProductID: "other", UnitPrice: dec("1"), Quantity: 1})
	require.NoError(t, err)
	_, err = s.AddItem(hoop(math.MaxInt))
	require.NoError(t, err)

	_, err = s.AddItem(hoop(1))
	var ile *domain.InvalidLineItemError
	require.ErrorAs(t, err, &ile)
	assert.Equal(t, "quantity", ile.Field)

	for _, it := range s.Items() {
		assert.Positive(t, it.Quantity)
	}
	assert.Len(t, Open(storage).Items(), 2, "persisted cart must still load")
}

func TestUpdateItemQuantity_UnknownIDIgnoresCap(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage(), WithMaxLineQuantity(5))
	_, err := s.AddItem(hoop(1))
	require.NoError(t, err)

	assert.NoError(t, s.UpdateItemQuantity("missing", 9))
	assert.Equal(t, 1, s.TotalItemCount())
}

func TestUpdateItemQuantity(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())
	line, err := s.AddItem(hoop(1))
	require.NoError(t, err)

	require.NoError(t, s.UpdateItemQuantity(line.ID, 4))
	assert.Equal(t, 4, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateItemQuantity("missing", 9))
	assert.Equal(t, 4, s.TotalItemCount())

	require.NoError(t, s.UpdateItemQuantity(line.ID, 0))
	assert.Empty(t, s.Items())
}

func TestUpdateItemQuantity_NegativeRemoves(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())
	line, err := s.AddItem(hoop(2))
	require.NoError(t, err)

	require.NoError(t, s.UpdateItemQuantity(line.ID, -1))
	assert.Empty(t, s.Items())
}

func TestRemoveItem(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())
	a, _ := s.AddItem(hoop(1))
	b, _ := s.AddItem(domain.LineItemInput{ProductID: "p2", Quantity: 1, UnitPrice: dec("3")})

	s.RemoveItem("missing")
	assert.Len(t, s.Items(), 2)

	s.RemoveItem(a.ID)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func TestTotals_ShippingThenDiscount(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())
	_, err := s.AddItem(domain.LineItemInput{ProductID: "p1", UnitPrice: dec("50"), Quantity: 2})
	require.NoError(t, err)
	s.SetShipping(&domain.Shipping{Price: dec("10")})

	s.SetDiscount(&domain.Discount{Type: domain.DiscountPercentage, Amount: dec("20")})
	assert.True(t, s.Subtotal().Equal(dec("100")))
	assert.True(t, s.Total().Equal(dec("88")), "total %s", s.Total())

	s.SetDiscount(&domain.Discount{Type: domain.DiscountFixed, Amount: dec("15")})
	assert.True(t, s.Total().Equal(dec("95")), "total %s", s.Total())

	s.SetDiscount(&domain.Discount{Type: domain.DiscountFixed, Amount: dec("500")})
	assert.True(t, s.Total().IsZero())

	s.SetDiscount(nil)
	s.SetShipping(nil)
	assert.True(t, s.Total().Equal(dec("100")))
}

func TestClear_ResetsEverything(t *testing.T) {
	storage := localstore.NewMemoryStorage()
	s := newTestStore(t, storage)
	_, _ = s.AddItem(hoop(3))
	s.SetShipping(&domain.Shipping{Price: dec("4")})
	s.SetDiscount(&domain.Discount{Type: domain.DiscountFixed, Amount: dec("1")})

	s.Clear()
	s.Clear()

	assert.Empty(t, s.Items())
	assert.Nil(t, s.Shipping())
	assert.Nil(t, s.Discount())
	assert.Zero(t, s.TotalItemCount())
	assert.True(t, s.Subtotal().IsZero())
	assert.True(t, s.Total().IsZero())

	_, err := storage.Read(StorageKey)
	assert.NoError(t, err, "clear keeps the persisted record")
}

func TestPersistence_RoundTrip(t *testing.T) {
	storage := localstore.NewMemoryStorage()
	s := newTestStore(t, storage)
	_, _ = s.AddItem(hoop(2))
	_, _ = s.AddItem(domain.LineItemInput{
		ProductID: "p2", Name: "Loop Bracelet", UnitPrice: dec("34.90"), Quantity: 1,
		ImageRef: "bracelets/loop", Color: "rose",
		AddOn: &domain.AddOn{ID: "care-2y", Name: "2y care", Price: dec("6.50")},
	})
	s.SetShipping(&domain.Shipping{Price: dec("4.99")})
	s.SetDiscount(&domain.Discount{Type: domain.DiscountPercentage, Amount: dec("10")})
	want := s.Snapshot()

	reopened := Open(storage)
	got := reopened.Snapshot()
	assert.True(t, want.SameContents(got), "want %+v got %+v", want, got)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	assert.True(t, s.Total().Equal(reopened.Total()))
}

func TestOpen_CorruptRecordFallsBackToEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"garbage":       "{not json",
		"wrong version": `{"state":{"items":[]},"version":99}`,
		"bad line":      `{"state":{"items":[{"id":"","productId":"p1","quantity":1}]},"version":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			storage := localstore.NewMemoryStorage()
			require.NoError(t, storage.Write(StorageKey, []byte(raw)))

			s := Open(storage)
			assert.Empty(t, s.Items())

			_, err := s.AddItem(hoop(1))
			require.NoError(t, err)
			assert.Len(t, Open(storage).Items(), 1, "store must overwrite the corrupt record")
		})
	}
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	s := newTestStore(t, failingStorage{})
	_, err := s.AddItem(hoop(2))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalItemCount())
}

func TestItemsReturnsCopies(t *testing.T) {
	s := newTestStore(t, localstore.NewMemoryStorage())
	_, _ = s.AddItem(hoop(1))

	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.TotalItemCount())
}
