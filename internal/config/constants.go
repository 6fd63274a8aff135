package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the shelf database
	DefaultDatabasePath = "./reader.db"

	// DefaultSourceAPIURL is the default book-source aggregation API endpoint
	DefaultSourceAPIURL = "http://127.0.0.1:1122/reader3"
)
