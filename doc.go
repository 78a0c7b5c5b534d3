// Package flexbuffers encodes and decodes FlexBuffers, a schema-less binary
// format in which every value carries its own type and width.
//
// A Builder writes values bottom-up into one byte slice: leaves first,
// then the vectors and maps holding them, then the root. Widths are chosen
// per container so small values stay small. Strings, keys and key vectors
// can be shared between repeated occurrences.
//
// GetRoot returns a Reference onto a finished buffer. References read in
// place without parsing the buffer first; map lookups binary search the
// sorted keys.
//
// Marshal and Unmarshal convert between Go values and buffers.
package flexbuffers
