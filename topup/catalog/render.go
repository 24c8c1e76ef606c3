package catalog

import "strings"

// RenderOptions controls Render output.
type RenderOptions struct {
	Currency string
	Header   string
	Footer   string
	// Empty is returned when the catalog has no products.
	Empty string
	// Escape is applied to product and category names, e.g. for Markdown.
	Escape func(string) string
}

// Render lists products grouped by category in file order.
func (c *Catalog) Render(opts RenderOptions) string {
	if c.Len() == 0 {
		return opts.Empty
	}
	esc := opts.Escape
	if esc == nil {
		esc = func(s string) string { return s }
	}

	var b strings.Builder
	if opts.Header != "" {
		b.WriteString(opts.Header)
		b.WriteString("\n\n")
	}
	for _, cat := range c.categories {
		b.WriteString("⭐ ")
		b.WriteString(esc(cat.Name))
		b.WriteString(" 📦\n")
		for _, p := range cat.Products {
			b.WriteString("• ")
			b.WriteString(esc(p.Code))
			b.WriteString(" - ")
			b.WriteString(esc(p.Name))
			b.WriteString(" = ")
			b.WriteString(p.Price.String())
			b.WriteString(opts.Currency)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(opts.Footer)
	return strings.TrimRight(b.String(), "\n")
}
