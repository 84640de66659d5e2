package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	"shopverse/internal/ident"
)

type ProductWriter interface {
	UpsertBySKU(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products by SKU,
// creating categories by name as they are referenced.
//
// Expected header: sku,name,description,price,stock,category,images,featured.
// Images are separated by ';'. A row with only an image URL continues the
// previous product.
type CSVImporter struct {
	reader       *csv.Reader
	productRepo  ProductWriter
	categoryRepo CategoryWriter
	categoryIDs  map[string]int64
	now          func() time.Time
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:       csvr,
		productRepo:  products,
		categoryRepo: categories,
		categoryIDs:  map[string]int64{},
		now:          time.Now,
	}
}

type csvRow struct {
	line        int
	SKU         string
	Name        string
	Description string
	Price       string
	Stock       string
	Category    string
	Featured    string
	ImageURLs   []string
}

var requiredHeaders = []string{"name", "price", "category"}

// Run parses CSV rows and upserts one product per row group. It stops at the
// first invalid row and reports how many products were saved before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return 0, fmt.Errorf("missing required column %q", h)
		}
	}

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}

		if row.Name != "" || row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p, err := row.product()
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}
	if p.SKU == "" {
		p.SKU = ident.SKU(i.now())
	}
	p.CategoryID, err = i.categoryID(ctx, row.Category)
	if err != nil {
		return fmt.Errorf("line %d: category %q: %w", row.line, row.Category, err)
	}

	if _, err := i.productRepo.UpsertBySKU(ctx, p); err != nil {
		return fmt.Errorf("line %d: upsert product %q: %w", row.line, p.SKU, err)
	}
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := i.categoryIDs[key]; ok {
		return id, nil
	}
	c, err := i.categoryRepo.Upsert(ctx, domain.Category{
		Name:     name,
		Slug:     domain.Slugify(name),
		IsActive: true,
	})
	if err != nil {
		return 0, err
	}
	i.categoryIDs[key] = c.ID
	return c.ID, nil
}

func (r *csvRow) product() (domain.Product, error) {
	if r.Name == "" {
		return domain.Product{}, errors.New("name is required")
	}
	if r.Category == "" {
		return domain.Product{}, errors.New("category is required")
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid price %q", r.Price)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("price must be non-negative, got %s", r.Price)
	}
	stock := 0
	if r.Stock != "" {
		if stock, err = strconv.Atoi(r.Stock); err != nil || stock < 0 {
			return domain.Product{}, fmt.Errorf("invalid stock %q", r.Stock)
		}
	}
	featured := false
	if r.Featured != "" {
		if featured, err = strconv.ParseBool(r.Featured); err != nil {
			return domain.Product{}, fmt.Errorf("invalid featured flag %q", r.Featured)
		}
	}
	return domain.Product{
		Name:        r.Name,
		Slug:        domain.Slugify(r.Name),
		Description: r.Description,
		Price:       price.Round(2),
		SKU:         r.SKU,
		Stock:       stock,
		Images:      r.ImageURLs,
		IsActive:    true,
		IsFeatured:  featured,
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	row := &csvRow{
		line:        line,
		SKU:         pick(record, index, "sku"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Price:       pick(record, index, "price"),
		Stock:       pick(record, index, "stock"),
		Category:    pick(record, index, "category"),
		Featured:    pick(record, index, "featured"),
	}
	for _, u := range strings.Split(pick(record, index, "images"), ";") {
		if u = strings.TrimSpace(u); u != "" {
			row.ImageURLs = append(row.ImageURLs, u)
		}
	}
	if row.Name == "" && row.SKU == "" && len(row.ImageURLs) == 0 {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
