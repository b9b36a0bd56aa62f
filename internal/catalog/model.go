// README: Catalog entry model decoded from the provider export format.
package catalog

// Restaurant is a fully resolved catalog entry.
type Restaurant struct {
	BusinessID      string
	Name            string
	Address         string
	Cuisine         string
	Rating          float64
	NumberOfReviews int
}

// fromAttrs builds a Restaurant from a decoded provider attribute map.
// Missing fields fall back to the same placeholders the notification
// templates expect.
func fromAttrs(id string, attrs map[string]any) Restaurant {
	r := Restaurant{
		BusinessID: id,
		Name:       "Unknown",
		Address:    "N/A",
	}
	if v, ok := attrs["Name"].(string); ok && v != "" {
		r.Name = v
	}
	if v, ok := attrs["Address"].(string); ok && v != "" {
		r.Address = v
	}
	if v, ok := attrs["Cuisine"].(string); ok {
		r.Cuisine = v
	}
	switch v := attrs["Rating"].(type) {
	case float64:
		r.Rating = v
	case int:
		r.Rating = float64(v)
	}
	switch v := attrs["NumberOfReviews"].(type) {
	case int:
		r.NumberOfReviews = v
	case float64:
		r.NumberOfReviews = int(v)
	}
	return r
}
