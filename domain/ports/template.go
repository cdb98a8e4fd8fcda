package ports

// TemplateEngine renders a manifest template before it is parsed.
type TemplateEngine interface {
	// Render executes raw with data available as the template's dot.
	Render(raw []byte, data map[string]interface{}) ([]byte, error)
}
