// Package analyzer classifies dispatch inputs into coarse characteristics
// (size bucket, element data type, value range) and maps them to a
// recommended execution strategy through a fixed decision table.
//
// Classification is total: malformed or unsupported inputs yield a
// conservative Unknown descriptor rather than an error or a panic. Data type
// and value range inspect at most SampleLimit leading elements so the cost is
// bounded regardless of input length.
package analyzer
