// Package store defines the atlas domain model, pagination helpers, and the
// repository interfaces consumed by services. Implementations live in other
// packages; this package must not import database drivers or concrete
// clients.
package store
