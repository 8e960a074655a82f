package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/peluchemania/backend/internal/store"
	"github.com/shopspring/decimal"
)

func createTestProduct(t *testing.T, db *sql.DB, name string, price int64, stock int) int64 {
	t.Helper()

	product, err := store.CreateProduct(context.Background(), db, store.ProductInput{
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("Create product %s: %v", name, err)
	}

	return product.ID
}

func productStock(t *testing.T, db *sql.DB, id int64) int {
	t.Helper()

	product, err := store.GetProduct(context.Background(), db, id)
	if err != nil {
		t.Fatalf("Get product %d: %v", id, err)
	}

	return product.Stock
}

func TestProcessPurchase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	osito := createTestProduct(t, db, "Oso Cariñoso", 15990, 10)
	panda := createTestProduct(t, db, "Panda Dormilón", 12990, 5)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(44970),
		ShippingAddress: &store.ShippingAddress{
			Calle:  "Av. Siempreviva 742",
			Comuna: "Santiago Centro",
			Region: "Metropolitana",
		},
		Items: []store.PurchaseItem{
			{ProductID: osito, Quantity: 2, UnitPrice: decimal.NewFromInt(15990)},
			{ProductID: panda, Quantity: 1, UnitPrice: decimal.NewFromInt(12990)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	if result.Receipt.ID == 0 {
		t.Error("Receipt ID should not be 0")
	}
	if result.Receipt.UserEmail != "cliente@gmail.cl" {
		t.Errorf("Expected purchaser cliente@gmail.cl, got %s", result.Receipt.UserEmail)
	}
	if !result.Receipt.Total.Equal(decimal.NewFromInt(44970)) {
		t.Errorf("Total should be persisted as given, got %s", result.Receipt.Total)
	}
	if want := "Av. Siempreviva 742, Santiago Centro, Metropolitana"; result.Receipt.Address != want {
		t.Errorf("Expected address %q, got %q", want, result.Receipt.Address)
	}

	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 item results, got %d", len(result.Items))
	}
	for _, item := range result.Items {
		if item.Status != store.ItemStatusOK {
			t.Errorf("Item %d: expected status ok, got %s", item.ProductID, item.Status)
		}
	}

	lines, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	// Lines come back in input order with the caller's quantity and price.
	if lines[0].ProductID != osito || lines[1].ProductID != panda {
		t.Errorf("Lines out of input order: %d, %d", lines[0].ProductID, lines[1].ProductID)
	}
	if lines[0].Quantity != 2 || !lines[0].UnitPrice.Equal(decimal.NewFromInt(15990)) {
		t.Errorf("Line 0 snapshot mismatch: qty=%d price=%s", lines[0].Quantity, lines[0].UnitPrice)
	}

	if got := productStock(t, db, osito); got != 8 {
		t.Errorf("Expected osito stock 8, got %d", got)
	}
	if got := productStock(t, db, panda); got != 4 {
		t.Errorf("Expected panda stock 4, got %d", got)
	}
}

func TestProcessPurchaseSkipsUnknownProduct(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	known := createTestProduct(t, db, "Dino Rex", 14500, 8)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(14600),
		Items: []store.PurchaseItem{
			{ProductID: 999999, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
			{ProductID: known, Quantity: 1, UnitPrice: decimal.NewFromInt(14500)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 item results, got %d", len(result.Items))
	}
	if result.Items[0].Status != store.ItemStatusSkippedNotFound {
		t.Errorf("Unknown item should be reported skipped, got %s", result.Items[0].Status)
	}
	if result.Items[1].Status != store.ItemStatusOK {
		t.Errorf("Known item should still process, got %s", result.Items[1].Status)
	}

	lines, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].ProductID != known {
		t.Errorf("Line should reference the resolvable product, got %d", lines[0].ProductID)
	}

	if got := productStock(t, db, known); got != 7 {
		t.Errorf("Expected stock 7, got %d", got)
	}
}

func TestProcessPurchaseAllItemsUnknown(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	bystander := createTestProduct(t, db, "Conejo Orejón", 9990, 20)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(100),
		Items: []store.PurchaseItem{
			{ProductID: 999999, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	// The header still persists, with zero lines.
	lines, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected 0 lines, got %d", len(lines))
	}

	if got := productStock(t, db, bystander); got != 20 {
		t.Errorf("Bystander stock should be untouched, got %d", got)
	}
}

func TestProcessPurchaseStockFloor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Oso Gigante", 29990, 3)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(149950),
		Items: []store.PurchaseItem{
			{ProductID: product, Quantity: 5, UnitPrice: decimal.NewFromInt(29990)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	// Overselling clamps at zero, never negative, and still records the line
	// with the requested quantity.
	if got := productStock(t, db, product); got != 0 {
		t.Errorf("Expected stock 0, got %d", got)
	}

	lines, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("Expected 1 line with quantity 5, got %+v", lines)
	}
}

func TestProcessPurchasePickupAddress(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Pochita", 18990, 6)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(18990),
		Items: []store.PurchaseItem{
			{ProductID: product, Quantity: 1, UnitPrice: decimal.NewFromInt(18990)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	if result.Receipt.Address != store.PickupAddress {
		t.Errorf("Expected address %q, got %q", store.PickupAddress, result.Receipt.Address)
	}
}

func TestProcessPurchaseRejectsMalformedCarts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Dragón Verde", 16990, 7)

	cases := []struct {
		name string
		req  store.PurchaseRequest
		want error
	}{
		{
			name: "missing purchaser",
			req: store.PurchaseRequest{
				Total: decimal.NewFromInt(100),
				Items: []store.PurchaseItem{{ProductID: product, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
			},
			want: store.ErrMissingPurchaser,
		},
		{
			name: "empty cart",
			req:  store.PurchaseRequest{UserEmail: "a@b.cl", Total: decimal.NewFromInt(100)},
			want: store.ErrEmptyCart,
		},
		{
			name: "zero quantity",
			req: store.PurchaseRequest{
				UserEmail: "a@b.cl",
				Total:     decimal.NewFromInt(100),
				Items:     []store.PurchaseItem{{ProductID: product, Quantity: 0, UnitPrice: decimal.NewFromInt(100)}},
			},
			want: store.ErrInvalidQuantity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.ProcessPurchase(ctx, db, tc.req)
			if err != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	if got := productStock(t, db, product); got != 7 {
		t.Errorf("Rejected carts must not touch stock, got %d", got)
	}

	receipts, err := store.ListReceipts(ctx, db)
	if err != nil {
		t.Fatalf("List receipts: %v", err)
	}
	if len(receipts) != 0 {
		t.Errorf("Rejected carts must not create receipts, got %d", len(receipts))
	}
}

func TestGetReceiptLinesIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Perezoso Relax", 11990, 12)

	result, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
		UserEmail: "cliente@gmail.cl",
		Total:     decimal.NewFromInt(23980),
		Items: []store.PurchaseItem{
			{ProductID: product, Quantity: 2, UnitPrice: decimal.NewFromInt(11990)},
		},
	})
	if err != nil {
		t.Fatalf("Process purchase: %v", err)
	}

	first, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines: %v", err)
	}
	second, err := store.GetReceiptLines(ctx, db, result.Receipt.ID)
	if err != nil {
		t.Fatalf("Get receipt lines again: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Reads disagree: %d vs %d lines", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Quantity != second[i].Quantity ||
			!first[i].UnitPrice.Equal(second[i].UnitPrice) {
			t.Errorf("Line %d differs between reads", i)
		}
	}

	// Unknown receipt id yields an empty list, same as a receipt without lines.
	missing, err := store.GetReceiptLines(ctx, db, 424242)
	if err != nil {
		t.Fatalf("Get lines for missing receipt: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("Expected empty list for unknown receipt, got %d lines", len(missing))
	}
}

func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Unicornio Mágico", 22990, 1)

	concurrency := 8
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
				UserEmail: "cliente@gmail.cl",
				Total:     decimal.NewFromInt(22990),
				Items: []store.PurchaseItem{
					{ProductID: product, Quantity: 1, UnitPrice: decimal.NewFromInt(22990)},
				},
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	// The row lock serializes the decrements; the floor keeps the counter at
	// zero no matter how many buyers raced for the last unit.
	if got := productStock(t, db, product); got != 0 {
		t.Errorf("Expected final stock 0, got %d", got)
	}
	if got := productStock(t, db, product); got < 0 {
		t.Errorf("Stock must never be negative, got %d", got)
	}
}

func TestListReceiptsByEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	product := createTestProduct(t, db, "Oso Cariñoso", 15990, 50)

	for _, email := range []string{"ana@gmail.cl", "ana@gmail.cl", "benito@gmail.cl"} {
		_, err := store.ProcessPurchase(ctx, db, store.PurchaseRequest{
			UserEmail: email,
			Total:     decimal.NewFromInt(15990),
			Items: []store.PurchaseItem{
				{ProductID: product, Quantity: 1, UnitPrice: decimal.NewFromInt(15990)},
			},
		})
		if err != nil {
			t.Fatalf("Process purchase for %s: %v", email, err)
		}
	}

	all, err := store.ListReceipts(ctx, db)
	if err != nil {
		t.Fatalf("List receipts: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 receipts, got %d", len(all))
	}

	ana, err := store.ListReceiptsByEmail(ctx, db, "ana@gmail.cl")
	if err != nil {
		t.Fatalf("List receipts by email: %v", err)
	}
	if len(ana) != 2 {
		t.Errorf("Expected 2 receipts for ana, got %d", len(ana))
	}
	for _, receipt := range ana {
		if receipt.UserEmail != "ana@gmail.cl" {
			t.Errorf("Wrong purchaser on receipt %d: %s", receipt.ID, receipt.UserEmail)
		}
	}
}
