package query

// Params are the raw list parameters as received from the caller. Empty
// strings mean "not supplied".
type Params struct {
	Page   string
	Limit  string
	SortBy string
	Order  string
	Gender string
	Search string
}

// ListQuery is the resolved request handed to the record store. Filter is
// used for both the page scan and the total count.
type ListQuery struct {
	Filter Predicate
	Sort   Sort
	Page   PageRequest
}

// Resolve validates params and builds a ListQuery. Pagination errors are
// returned before anything else is resolved.
func Resolve(p Params, maxLimit int) (ListQuery, error) {
	page, err := Paginate(p.Page, p.Limit, maxLimit)
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{
		Filter: BuildFilter(p.Gender, p.Search),
		Sort:   ResolveSort(p.SortBy, p.Order),
		Page:   page,
	}, nil
}
