// internal/api/types/response.go
package types

// PaginatedResponse defines a generic structure for paginated API responses.
// T is the type of the items in Data.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}
