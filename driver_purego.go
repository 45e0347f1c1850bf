//go:build !cgo_sqlite

package dbsql

// No reference oracle is linked in the default build; differential tests
// that need one are not compiled (comparison_test.go builds only under the
// cgo_sqlite tag).
const referenceDriverName = ""
