// Package pms sorts bounded sequences of small-range integers with a
// pipelined merge-sort network: a linear chain of stages, each running
// in its own goroutine and connected to its neighbours by unbuffered
// channels, where every stage performs one pass of a classic merge
// sort. Data flows through the pipeline once, while each stage doubles
// the length of the sorted runs it produces.
//
// Stages infer run boundaries from a one-bit tag on each message,
// buffer just enough look-ahead to start merging safely, and re-tag
// their output so that the next stage can repeat the same step at
// twice the run length. The only shared information is the total
// number of elements.
//
// Pms provides the following subpackages:
//
// pms/pipeline provides the stages (source, mergers, sink), the links
// between them, and the Pipeline type that wires and runs them.
//
// pms/sort sorts slices through a pipeline of suitable depth.
//
// pms/numbers reads the binary input format, generates random inputs,
// and writes the echo line and the streaming one-value-per-line output.
//
// The pms command in cmd/pms ties these together.
package pms
