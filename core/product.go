package core

// Product is the unit of discovery output. Agents return products inside
// step payloads; the orchestrator deduplicates them by ID, keeping the
// highest score seen across steps.
type Product struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category string         `json:"category,omitempty"`
	Price    float64        `json:"price,omitempty"`
	Score    float64        `json:"score"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ProductFromPayload rebuilds a Product from a generic payload map, the
// shape products take after crossing the bus. Missing fields zero out.
func ProductFromPayload(m map[string]any) Product {
	p := Product{}
	if v, ok := m["id"].(string); ok {
		p.ID = v
	}
	if v, ok := m["name"].(string); ok {
		p.Name = v
	}
	if v, ok := m["category"].(string); ok {
		p.Category = v
	}
	if v, ok := m["price"].(float64); ok {
		p.Price = v
	}
	if v, ok := m["score"].(float64); ok {
		p.Score = v
	}
	if v, ok := m["source"].(string); ok {
		p.Source = v
	}
	if v, ok := m["metadata"].(map[string]any); ok {
		p.Metadata = v
	}
	return p
}

// Payload flattens the product into a generic map for bus transport.
func (p Product) Payload() map[string]any {
	m := map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"score": p.Score,
	}
	if p.Category != "" {
		m["category"] = p.Category
	}
	if p.Price != 0 {
		m["price"] = p.Price
	}
	if p.Source != "" {
		m["source"] = p.Source
	}
	if len(p.Metadata) > 0 {
		m["metadata"] = p.Metadata
	}
	return m
}
