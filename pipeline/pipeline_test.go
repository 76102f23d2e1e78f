package pipeline_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/exascience/pms/internal"
	"github.com/exascience/pms/pipeline"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/combin"
)

func run[E pipelineElement](t *testing.T, input []E, depth int) []E {
	t.Helper()
	var result []E
	var p pipeline.Pipeline[E]
	p.Source(input)
	p.Sink(pipeline.Collect(&result))
	p.Depth(depth)
	require.NoError(t, p.Run())
	return result
}

type pipelineElement interface {
	~int | ~uint8
}

func sorted[E pipelineElement](input []E) []E {
	result := append([]E(nil), input...)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func TestScenarios(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  []uint8
		depth  int
		output []uint8
	}{
		{"TwoMergers", []uint8{5, 3, 8, 1}, 4, []uint8{1, 3, 5, 8}},
		{"MergerAndSink", []uint8{5, 3, 8, 1}, 3, []uint8{1, 3, 5, 8}},
		{"Duplicates", []uint8{4, 4, 2, 2}, 3, []uint8{2, 2, 4, 4}},
		{"AlreadySorted", []uint8{1, 2, 3, 4}, 3, []uint8{1, 2, 3, 4}},
		{"Empty", nil, 3, nil},
		{"EmptyDeep", []uint8{}, 8, nil},
		{"Single", []uint8{42}, 2, []uint8{42}},
		{"SingleDeep", []uint8{42}, 7, []uint8{42}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.output, run(t, tc.input, tc.depth))
		})
	}
}

func TestAllPermutations(t *testing.T) {
	for n := 1; n <= 6; n++ {
		minDepth := internal.ComputeDepth(n)
		for _, perm := range combin.Permutations(n, n) {
			// fold values so that most inputs contain duplicates
			input := make([]int, n)
			for i, v := range perm {
				input[i] = v % 4
			}
			expected := sorted(input)
			for depth := minDepth; depth <= minDepth+2; depth++ {
				got := run(t, input, depth)
				if !assert.Equal(t, expected, got, "input %v depth %d", input, depth) {
					return
				}
			}
		}
	}
}

func TestRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{7, 31, 100, 257, 1000} {
		input := make([]uint8, n)
		for i := range input {
			input[i] = uint8(rng.Intn(256))
		}
		depth := internal.ComputeDepth(n)
		require.True(t, pipeline.Compatible(n, depth))
		first := run(t, input, depth)
		assert.Equal(t, sorted(input), first, "n=%d", n)
		assert.Equal(t, first, run(t, input, depth), "rerun differs for n=%d", n)
	}
}

func TestShallowPipelineEmitsSortedRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	input := make([]int, 53)
	for i := range input {
		input[i] = rng.Intn(1000)
	}
	for depth := 2; depth < internal.ComputeDepth(len(input)); depth++ {
		require.False(t, pipeline.Compatible(len(input), depth))
		got := run(t, input, depth)
		assert.ElementsMatch(t, input, got)
		runLength := 1 << (depth - 1)
		for low := 0; low < len(got); low += runLength {
			high := low + runLength
			if high > len(got) {
				high = len(got)
			}
			assert.True(t, sort.IntsAreSorted(got[low:high]), "depth %d run %d:%d", depth, low, high)
		}
	}
}

func TestDepthTooSmall(t *testing.T) {
	var p pipeline.Pipeline[int]
	p.Source([]int{1, 2})
	p.Sink(pipeline.Collect(new([]int)))
	p.Depth(1)
	err := p.Run()
	assert.True(t, errors.Is(err, pipeline.ErrDepth))
	assert.Equal(t, err, p.Err(nil))
}

func TestDepthBoundary(t *testing.T) {
	for depth := pipeline.MaxDepth - 2; depth <= pipeline.MaxDepth; depth++ {
		assert.True(t, pipeline.Compatible(3, depth))
		assert.Equal(t, []uint8{1, 2, 3}, run(t, []uint8{3, 1, 2}, depth), "depth %d", depth)
	}
	for _, depth := range []int{pipeline.MaxDepth + 1, pipeline.MaxDepth + 2} {
		assert.False(t, pipeline.Compatible(3, depth))
		var p pipeline.Pipeline[uint8]
		p.Source([]uint8{3, 1, 2})
		p.Sink(pipeline.Collect(new([]uint8)))
		p.Depth(depth)
		var err error
		require.NotPanics(t, func() { err = p.Run() })
		assert.True(t, errors.Is(err, pipeline.ErrDepth), "depth %d", depth)
	}
}

func TestMissingSink(t *testing.T) {
	var p pipeline.Pipeline[int]
	p.Source([]int{1})
	assert.True(t, errors.Is(p.Run(), pipeline.ErrNoSink))
}

func TestDefaultDepth(t *testing.T) {
	var p pipeline.Pipeline[int]
	assert.Equal(t, 2, p.Depth(0))
	p.Source(make([]int, 9))
	assert.Equal(t, 5, p.Depth(0))
	assert.Equal(t, 3, p.Depth(3))
	assert.Equal(t, 3, p.Depth(0))
}

func TestEmitterError(t *testing.T) {
	boom := errors.New("boom")
	input := make([]int, 64)
	var p pipeline.Pipeline[int]
	p.Source(input)
	emitted := 0
	p.Sink(pipeline.EmitterFunc[int](func(int) error {
		if emitted++; emitted == 3 {
			return boom
		}
		return nil
	}))
	err := p.Run()
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 3, emitted)
}

func TestStagePanic(t *testing.T) {
	var p pipeline.Pipeline[int]
	p.Source([]int{3, 1, 2})
	p.Sink(pipeline.EmitterFunc[int](func(int) error {
		panic("emitter failed")
	}))
	assert.Panics(t, func() { _ = p.Run() })
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, pipeline.SourceRole, pipeline.RoleOf(0, 4))
	assert.Equal(t, pipeline.MergerRole, pipeline.RoleOf(1, 4))
	assert.Equal(t, pipeline.MergerRole, pipeline.RoleOf(2, 4))
	assert.Equal(t, pipeline.SinkRole, pipeline.RoleOf(3, 4))
	assert.Equal(t, "sink", pipeline.RoleOf(1, 2).String())
	assert.Panics(t, func() { pipeline.RoleOf(4, 4) })
}

func TestTagFlip(t *testing.T) {
	assert.Equal(t, pipeline.Tag1, pipeline.Tag0.Flip())
	assert.Equal(t, pipeline.Tag0, pipeline.Tag1.Flip())
}
