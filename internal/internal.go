package internal

import (
	"errors"
	"fmt"
	"math/bits"
	"runtime"
	"runtime/debug"
)

// ComputeDepth returns the smallest pipeline depth whose sink emits a
// single sorted run of size elements: a source, one merger per
// doubling of the run length, and a sink.
func ComputeDepth(size int) (depth int) {
	switch {
	case size < 0:
		panic(fmt.Sprintf("invalid data size: %v", size))
	case size <= 2:
		return 2
	default:
		return bits.Len(uint(size-1)) + 1
	}
}

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

// WrapPanic adds stack trace information to a recovered panic.
func WrapPanic(p interface{}) interface{} {
	if p != nil {
		s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
		if _, isError := p.(error); isError {
			r := errors.New(s)
			if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
				return runtimeError{r}
			}
			return r
		}
		return s
	}
	return nil
}
