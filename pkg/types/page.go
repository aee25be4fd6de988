package types

// Page is one page of a cursor-paginated query result. Data is ordered by
// ascending surrogate identifier. NextCursor is the identifier of the last
// record in the page, or nil when the page is empty. HasMore reports whether
// at least one further eligible record exists beyond this page; it is
// computed by probing past the page, not by comparing len(Data) to the
// requested limit.
type Page struct {
	Data       []StoredTrip `json:"data"`
	NextCursor *int64       `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}
