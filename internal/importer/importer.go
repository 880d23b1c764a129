package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"glowloops/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products.
//
// A row with a key starts a product. Following rows without a key add images
// or add-ons to it. Expected headers: id, key, name, description, sku, price,
// currency, colors (semicolon separated), image, addon.id, addon.name,
// addon.price. Prices are decimal major units.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger,
	}
}

type csvRow struct {
	ID       string
	Key      string
	Name     string
	Desc     string
	SKU      string
	Price    string
	Currency string
	Colors   []string
	Images   []string
	AddOns   []domain.AddOn
	line     int
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.line = line

		if row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows belong to the current product.
		if current != nil {
			current.Images = append(current.Images, row.Images...)
			current.AddOns = append(current.AddOns, row.AddOns...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("catalog import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Key == "" || row.Name == "" || row.SKU == "" || row.Price == "" {
		return fmt.Errorf("line %d: invalid product row (missing required fields) for key %q", row.line, row.Key)
	}
	if row.ID != "" && len(row.ID) != 36 {
		return fmt.Errorf("line %d: invalid id for key %q: %s", row.line, row.Key, row.ID)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil || !price.IsPositive() {
		return fmt.Errorf("line %d: invalid price for key %q: %q", row.line, row.Key, row.Price)
	}
	currency := row.Currency
	if currency == "" {
		currency = "USD"
	}

	p := domain.Product{
		ID:          row.ID,
		Key:         row.Key,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  price.Shift(2).Round(0).IntPart(),
		Currency:    strings.ToUpper(currency),
		Colors:      row.Colors,
		Images:      row.Images,
		AddOns:      row.AddOns,
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	i.logger.Debug("imported product", zap.String("key", row.Key))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	key := pick(record, index, "key")
	image := pick(record, index, "image")
	addOnID := pick(record, index, "addon.id")

	if key == "" && image == "" && addOnID == "" {
		return nil, nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		Key:      key,
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		SKU:      pick(record, index, "sku"),
		Price:    pick(record, index, "price"),
		Currency: pick(record, index, "currency"),
		Colors:   splitList(pick(record, index, "colors")),
	}
	if image != "" {
		row.Images = []string{image}
	}
	if addOnID != "" {
		price, err := decimal.NewFromString(pick(record, index, "addon.price"))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid add-on price for %q", addOnID)
		}
		row.AddOns = []domain.AddOn{{ID: addOnID, Name: pick(record, index, "addon.name"), Price: price}}
	}
	return row, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
