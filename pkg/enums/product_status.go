package enums

// ProductStatus is stored as 1 (listed) or 0 (delisted).
type ProductStatus int

const (
	ProductStatusDelisted ProductStatus = 0
	ProductStatusListed   ProductStatus = 1
)

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusListed || s == ProductStatusDelisted
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	if s == ProductStatusListed {
		return "listed"
	}
	return "delisted"
}
