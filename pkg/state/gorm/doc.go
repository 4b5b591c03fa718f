// Package gorm provides the GORM-based implementation of the store
// interfaces defined in the parent state package. The default backend is an
// embedded SQLite file under the state directory; a postgres:// URL switches
// to PostgreSQL for shared state.
package gorm
