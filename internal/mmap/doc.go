// Package mmap maps table files read-only so they can be validated without
// first copying them onto the heap.
//
// A table is read front to back exactly once by the parser, which then keeps
// its own copy of the data segment. Callers map a file, advise sequential
// access, parse, and close the mapping. On Windows the advice is a no-op.
package mmap
