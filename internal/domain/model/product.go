package model

// Product is an individual entitlement granted by a plan. Its Type feeds the
// deterministic filename for generated documents.
type Product struct {
	ID   string
	Name string
	Type string // e.g. "system_a", "booklet_b"; used as the filename suffix
	Kind PackageType
}
