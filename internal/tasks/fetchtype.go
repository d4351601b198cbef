package tasks

// FetchType selects how a get task returns what it fetched.
type FetchType string

const (
	// FetchOne returns the single record.
	FetchOne FetchType = "FETCH_ONE"
	// Fetch returns the records as a list.
	Fetch FetchType = "FETCH"
	// Store writes the records to the run's storage and returns its URI.
	Store FetchType = "STORE"
)

// OrDefault returns FetchOne for an empty value.
func (f FetchType) OrDefault() FetchType {
	if f == "" {
		return FetchOne
	}
	return f
}
