// Package importer loads catalog items and categories from CSV files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"skins-market/internal/domain"
	"skins-market/internal/pricing"
)

type Kind string

const (
	KindItems      Kind = "items"
	KindCategories Kind = "categories"
)

type ItemWriter interface {
	Upsert(ctx context.Context, item domain.Item) (*domain.Item, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter upserts items by name and categories by number.
type CSVImporter struct {
	reader     *csv.Reader
	items      ItemWriter
	categories CategoryStore
	log        *zap.Logger

	byNumber map[int]int64
}

func NewCSVImporter(r io.Reader, items ItemWriter, categories CategoryStore, log *zap.Logger) *CSVImporter {
	if log == nil {
		log = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, items: items, categories: categories, log: log}
}

// DetectKind peeks at the header line to tell item files from category files.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["priceWithoutSale"]; ok {
		return KindItems, nil
	}
	if _, ok := index["number"]; ok {
		return KindCategories, nil
	}
	return "", fmt.Errorf("unrecognised csv headers %v", headers)
}

// Run reads every row and returns how many were stored.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	_, isItems := index["priceWithoutSale"]

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		if isItems {
			err = i.saveItem(ctx, record, index)
		} else {
			err = i.saveCategory(ctx, record, index)
		}
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		imported++
	}
	i.log.Info("csv import finished", zap.Int("rows", imported))
	return imported, nil
}

func (i *CSVImporter) saveCategory(ctx context.Context, record []string, index map[string]int) error {
	number, err := atoi(pick(record, index, "number"), "number")
	if err != nil {
		return err
	}
	c := domain.Category{
		Name:     pick(record, index, "name"),
		Number:   number,
		ImageURL: pick(record, index, "image"),
	}
	if c.Name == "" {
		return domain.Invalid("name", "is required")
	}
	saved, err := i.categories.Upsert(ctx, c)
	if err != nil {
		return fmt.Errorf("upsert category %d: %w", number, err)
	}
	if i.byNumber != nil {
		i.byNumber[saved.Number] = saved.ID
	}
	return nil
}

func (i *CSVImporter) saveItem(ctx context.Context, record []string, index map[string]int) error {
	it := domain.Item{
		Name:     pick(record, index, "name"),
		Title:    pick(record, index, "title"),
		Grade:    pick(record, index, "grade"),
		Kind:     pick(record, index, "type"),
		Content:  pick(record, index, "content"),
		IconURL:  pick(record, index, "icon"),
		ImageURL: pick(record, index, "image"),
	}
	if it.Name == "" {
		return domain.Invalid("name", "is required")
	}
	base, err := strconv.ParseInt(pick(record, index, "priceWithoutSale"), 10, 64)
	if err != nil {
		return domain.Invalid("priceWithoutSale", "must be an integer")
	}
	discount := 0
	if raw := pick(record, index, "sale"); raw != "" {
		if discount, err = atoi(raw, "sale"); err != nil {
			return err
		}
	}
	if err := pricing.Validate(base, discount); err != nil {
		return err
	}
	it.BasePrice, it.Discount, it.RealPrice = base, discount, pricing.RealPrice(base, discount)

	if raw := pick(record, index, "category"); raw != "" {
		number, err := atoi(raw, "category")
		if err != nil {
			return err
		}
		id, err := i.categoryID(ctx, number)
		if err != nil {
			return err
		}
		it.CategoryID = &id
	}

	if _, err := i.items.Upsert(ctx, it); err != nil {
		return fmt.Errorf("upsert item %q: %w", it.Name, err)
	}
	return nil
}

// categoryID resolves a category number, loading the table once.
func (i *CSVImporter) categoryID(ctx context.Context, number int) (int64, error) {
	if i.byNumber == nil {
		cats, err := i.categories.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("list categories: %w", err)
		}
		i.byNumber = make(map[int]int64, len(cats))
		for _, c := range cats {
			i.byNumber[c.Number] = c.ID
		}
	}
	id, ok := i.byNumber[number]
	if !ok {
		return 0, domain.Invalid("category", fmt.Sprintf("unknown category number %d", number))
	}
	return id, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func atoi(raw, field string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(field, "must be an integer")
	}
	return v, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
