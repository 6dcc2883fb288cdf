package query

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
)

var (
	ErrInvalidPage  = errors.New("Page value must be 1 or more")
	ErrInvalidLimit = errors.New("Limit value must be 1 or more")
)

// PageRequest is a resolved offset/limit window.
type PageRequest struct {
	Page   int
	Limit  int
	Offset int
}

// Paginate resolves page and limit. Absent values take the defaults; values
// that are not integers ≥ 1 are caller errors, as is a page whose offset does
// not fit in an int. maxLimit > 0 caps limit.
func Paginate(pageParam, limitParam string, maxLimit int) (PageRequest, error) {
	page, err := parsePositive(pageParam, DefaultPage, ErrInvalidPage)
	if err != nil {
		return PageRequest{}, err
	}
	limit, err := parsePositive(limitParam, DefaultLimit, ErrInvalidLimit)
	if err != nil {
		return PageRequest{}, err
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt/limit {
		return PageRequest{}, ErrInvalidPage
	}
	return PageRequest{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, nil
}

func parsePositive(raw string, fallback int, invalid error) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid
	}
	return n, nil
}

// TotalPages returns the number of pages needed for total records.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}
