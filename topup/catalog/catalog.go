// Package catalog loads the read-only product catalog and renders it for users.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/topupbot/core/logger"
)

// Product is a purchasable item. Code is matched case-insensitively.
type Product struct {
	Code  string          `yaml:"code" json:"code"`
	Name  string          `yaml:"name" json:"name"`
	Price decimal.Decimal `yaml:"-" json:"price"`
}

// Category groups products for display.
type Category struct {
	Name     string
	Products []Product
}

// Catalog is immutable after Load.
type Catalog struct {
	categories []Category
	duplicates []string
}

// Empty returns a catalog with no products.
func Empty() *Catalog {
	return &Catalog{}
}

// Load parses a "category -> [{code, name, price}]" document. JSON is a YAML
// subset, so plans.json and catalog.yaml share one parser that keeps the
// written order of categories and products.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog data. See Load.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return Empty(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse catalog: top level must be a mapping of categories")
	}

	c := &Catalog{}
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, list := root.Content[i].Value, root.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("parse catalog: category %q must be a list", name)
		}
		cat := Category{Name: name}
		for _, item := range list.Content {
			p, err := decodeProduct(item)
			if err != nil {
				return nil, fmt.Errorf("parse catalog: category %q: %w", name, err)
			}
			key := normalizeCode(p.Code)
			if _, dup := seen[key]; dup {
				c.duplicates = append(c.duplicates, p.Code)
			}
			seen[key] = struct{}{}
			cat.Products = append(cat.Products, p)
		}
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

func decodeProduct(node *yaml.Node) (Product, error) {
	var raw struct {
		Code  string    `yaml:"code"`
		Name  string    `yaml:"name"`
		Price yaml.Node `yaml:"price"`
	}
	if err := node.Decode(&raw); err != nil {
		return Product{}, err
	}
	if strings.TrimSpace(raw.Code) == "" {
		return Product{}, fmt.Errorf("line %d: product code is required", node.Line)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw.Price.Value))
	if err != nil {
		return Product{}, fmt.Errorf("line %d: product %q: invalid price %q", node.Line, raw.Code, raw.Price.Value)
	}
	return Product{Code: strings.TrimSpace(raw.Code), Name: raw.Name, Price: price}, nil
}

// LoadOrEmpty loads path and degrades to an empty catalog on failure.
func LoadOrEmpty(ctx context.Context, path string) *Catalog {
	c, err := Load(path)
	if err != nil {
		logger.Warn(ctx, logger.CompCatalog, "catalog.load",
			slog.String("status", "fail"),
			slog.String("path", path),
			logger.Err(err),
		)
		return Empty()
	}
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("path", path),
		slog.Int("categories", len(c.categories)),
		slog.Int("products", c.Len()),
	}
	if len(c.duplicates) > 0 {
		preview, _ := logger.SummarizeStrings(c.duplicates, 6)
		logger.Warn(ctx, logger.CompCatalog, "catalog.duplicates",
			slog.String("codes", preview),
			slog.Int("count", len(c.duplicates)),
		)
	}
	logger.Info(ctx, logger.CompCatalog, "catalog.load", attrs...)
	return c
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup finds a product by code. With duplicate codes the first one in file order wins.
func (c *Catalog) Lookup(code string) (Product, bool) {
	key := normalizeCode(code)
	if key == "" {
		return Product{}, false
	}
	for _, cat := range c.categories {
		for _, p := range cat.Products {
			if normalizeCode(p.Code) == key {
				return p, true
			}
		}
	}
	return Product{}, false
}

// Categories returns the categories in file order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Products)
	}
	return n
}

// Duplicates lists codes that appeared more than once, in the order they were seen again.
func (c *Catalog) Duplicates() []string {
	return append([]string(nil), c.duplicates...)
}
