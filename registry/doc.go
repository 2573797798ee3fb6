// Package registry implements content addressing and the write-once function
// registry of a loaded contract.
//
// A function is addressed by a [Key] derived from its exported name and its
// parameter [Shape]. Derivation is pure, so a host can compute the key of a
// known signature without loading the module:
//
//	key := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
//
// A [Registry] moves through three states. It is Uninitialized until the host
// begins the module's initialization call, Populating while that call runs
// and registers entries, and Sealed once it returns. Entries accumulate in a
// mutable [Builder] and are frozen into an immutable [Table] on seal; every
// later lookup goes through the table.
package registry
