package catalog

// Product is one catalog record. The name doubles as the lookup key;
// price stays a display string because the catalog stores it that way.
type Product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}
