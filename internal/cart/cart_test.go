package cart

import (
	"context"
	"errors"
	"testing"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
	"tableside/internal/storage"
)

type fakeCatalog map[string]domain.MenuItem

func (f fakeCatalog) Item(id string) (domain.MenuItem, bool) {
	item, ok := f[id]
	return item, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"dosa": {ID: "dosa", Name: "Masala Dosa", Price: 100, Category: "mains", Available: true},
		"chai": {ID: "chai", Name: "Cutting Chai", Price: 50, Category: "beverages", Available: true},
		"idli": {ID: "idli", Name: "Idli", Price: 30, Category: "starters", Available: true},
	}
}

func newTestCart(t *testing.T) (*Cart, storage.Store, fakeCatalog) {
	t.Helper()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cat := testCatalog()
	c, err := Load(context.Background(), store, cat, logger.New("cart-test"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c, store, cat
}

func TestAddUnknownItemLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCart(t)

	if err := c.Add(ctx, "ghost"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
	if !c.Empty() {
		t.Fatalf("failed add mutated the cart")
	}
}

func TestAddMergesIntoOneLinePerItem(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCart(t)

	for i := 0; i < 3; i++ {
		if err := c.Add(ctx, "dosa"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := c.Add(ctx, "chai"); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].ItemID != "dosa" || lines[0].Quantity != 3 {
		t.Fatalf("dosa line = %+v", lines[0])
	}
	if got, want := c.Total(), 3*100.0+50.0; got != want {
		t.Fatalf("total = %v, want %v", got, want)
	}
	if c.ItemCount() != 4 {
		t.Fatalf("item count = %d, want 4", c.ItemCount())
	}
}

func TestCartLinesArePriceSnapshots(t *testing.T) {
	ctx := context.Background()
	c, _, cat := newTestCart(t)

	if err := c.Add(ctx, "dosa"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Catalog re-price after the line was created.
	item := cat["dosa"]
	item.Price = 999
	cat["dosa"] = item

	if got := c.Lines()[0].UnitPrice; got != 100 {
		t.Fatalf("line price followed the catalog: %v", got)
	}
	if got := c.Total(); got != 100 {
		t.Fatalf("total followed the catalog: %v", got)
	}
}

func TestSetQuantitySemantics(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCart(t)

	if err := c.Add(ctx, "dosa"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.SetQuantity(ctx, "dosa", 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if c.ItemCount() != 5 {
		t.Fatalf("quantity = %d, want 5", c.ItemCount())
	}

	// n > 0 on a non-existent line cannot conjure one.
	if err := c.SetQuantity(ctx, "chai", 2); err != nil {
		t.Fatalf("no-op set errored: %v", err)
	}
	if len(c.Lines()) != 1 {
		t.Fatalf("set on missing line created it")
	}

	// n <= 0 removes the line entirely.
	if err := c.SetQuantity(ctx, "dosa", 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("zero quantity did not remove the line")
	}
	if err := c.SetQuantity(ctx, "dosa", -1); err != nil {
		t.Fatalf("negative on missing line errored: %v", err)
	}
}

func TestNoLineSurvivesWithNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCart(t)

	ops := []struct {
		id string
		n  int
	}{
		{"dosa", 4}, {"chai", 2}, {"idli", 1}, {"chai", 0}, {"idli", -2}, {"dosa", 2},
	}
	_ = c.Add(ctx, "dosa")
	_ = c.Add(ctx, "chai")
	_ = c.Add(ctx, "idli")
	for _, op := range ops {
		if err := c.SetQuantity(ctx, op.id, op.n); err != nil {
			t.Fatalf("set %v: %v", op, err)
		}
	}

	want := 0.0
	for _, l := range c.Lines() {
		if l.Quantity <= 0 {
			t.Fatalf("line %q survived with quantity %d", l.ItemID, l.Quantity)
		}
		want += l.UnitPrice * float64(l.Quantity)
	}
	if got := c.Total(); got != want {
		t.Fatalf("total = %v, want sum over surviving lines %v", got, want)
	}
	if got := c.Total(); got != 200 {
		t.Fatalf("total = %v, want 200 (dosa ×2)", got)
	}
}

func TestCartPersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	c, store, cat := newTestCart(t)

	_ = c.Add(ctx, "dosa")
	_ = c.Add(ctx, "dosa")
	_ = c.Add(ctx, "chai")

	reloaded, err := Load(ctx, store, cat, logger.New("cart-test"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got, want := reloaded.Total(), c.Total(); got != want {
		t.Fatalf("reloaded total = %v, want %v", got, want)
	}
	if len(reloaded.Lines()) != 2 {
		t.Fatalf("reloaded lines = %d, want 2", len(reloaded.Lines()))
	}
}

func TestCorruptPersistedCartDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := storage.NewStore(storage.StoreTypeMemory)
	_ = store.Set(ctx, storage.KeyCart, `[{"item_id": broken`)

	c, err := Load(ctx, store, testCatalog(), logger.New("cart-test"))
	if err != nil {
		t.Fatalf("corrupt cart must not fail load: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("corrupt cart produced lines")
	}
}

func TestClearPersistsEmptyState(t *testing.T) {
	ctx := context.Background()
	c, store, cat := newTestCart(t)

	_ = c.Add(ctx, "dosa")
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	reloaded, err := Load(ctx, store, cat, logger.New("cart-test"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Empty() {
		t.Fatalf("clear was not persisted")
	}
}
