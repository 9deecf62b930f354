package service

import (
	"math"
	"strconv"
	"strings"
)

const (
	defaultPage     = 1
	defaultPageSize = 5
	maxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage reads page and limit query values. Absent values take the
// defaults; anything else must be a positive integer. Size is capped, and a
// page whose offset would not fit in an int is rejected.
func ParsePage(pageRaw, limitRaw string) (Page, error) {
	number, err := positiveOrDefault(pageRaw, defaultPage)
	if err != nil {
		return Page{}, err
	}
	size, err := positiveOrDefault(limitRaw, defaultPageSize)
	if err != nil {
		return Page{}, err
	}

	size = min(size, maxPageSize)
	if number-1 > math.MaxInt/size {
		return Page{}, ErrInvalidPagination
	}

	return Page{Number: number, Size: size}, nil
}

func positiveOrDefault(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidPagination
	}
	return n, nil
}
