// Package golang provides the dep and Go modules adapters.
//
// Neither has a registry fallback: Go module metadata carries no license,
// so licenses always come from the files in the module directory.
package golang
