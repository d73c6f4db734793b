// Package t212 implements a read-only mirror of a Trading 212 account: it
// merges the broker's CSV transaction exports into a canonical ledger,
// polls the live positions API under a minimum-interval rate gate, caches
// the result with a short TTL, and derives a bounded net-gain time series
// from the two.
//
// All durable state (ledger, price extrema, net-gain history, and the
// optional position cache) lives as small files under a single data
// directory, each written with atomic rename semantics. The [Engine] type
// is the only entry point the rest of an application needs.
package t212
