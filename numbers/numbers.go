/*
Package numbers reads and writes the data that a merge-sort network
consumes and produces.

An input file is a flat binary stream of unsigned 8-bit values, one
element per byte, with no header or delimiter. Its length is implied
by the end of the stream.
*/
package numbers

import (
	"bufio"
	"io"
	"math/rand"
	"os"
	"strconv"

	"github.com/convox/logger"
	"github.com/pkg/errors"
)

// DefaultFile is the name of the input file when none is given.
const DefaultFile = "numbers"

// Read reads all remaining bytes of r as elements.
func Read(r io.Reader) ([]uint8, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read numbers")
	}
	return data, nil
}

/*
Load reads the elements stored in the file at path.

If the file cannot be opened or read, Load logs the error and returns
an empty sequence, so that a pipeline started on the result terminates
immediately without output.
*/
func Load(path string, log *logger.Logger) []uint8 {
	log = log.At("load")
	f, err := os.Open(path)
	if err != nil {
		log.Error(errors.Wrapf(err, "could not open file %s", path))
		return nil
	}
	defer f.Close()
	data, err := Read(f)
	if err != nil {
		log.Error(errors.Wrapf(err, "could not read file %s", path))
		return nil
	}
	log.Logf("file=%q count=%d", path, len(data))
	return data
}

// Generate writes n random elements to w.
func Generate(w io.Writer, n int, rng *rand.Rand) error {
	if n < 0 {
		return errors.Errorf("invalid number of elements: %d", n)
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		if err := bw.WriteByte(uint8(rng.Intn(256))); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(bw.Flush())
}

// WriteFile creates or truncates the file at path and fills it with n
// random elements drawn from a source seeded with seed.
func WriteFile(path string, n int, seed int64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.WithStack(cerr)
		}
	}()
	return Generate(f, n, rand.New(rand.NewSource(seed)))
}

// Echo writes values as space-separated decimals on a single line.
func Echo(w io.Writer, values []uint8) error {
	bw := bufio.NewWriter(w)
	for _, value := range values {
		bw.WriteString(strconv.Itoa(int(value)))
		bw.WriteByte(' ')
	}
	bw.WriteByte('\n')
	return errors.WithStack(bw.Flush())
}

/*
A LineWriter writes one decimal value per line and flushes after
every line, so that each value becomes visible as soon as it has been
decided.

LineWriter implements the Emitter interface of the pipeline package.
*/
type LineWriter struct {
	w     *bufio.Writer
	count int
}

// NewLineWriter creates a LineWriter that writes to w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Emit writes value followed by a newline and flushes.
func (lw *LineWriter) Emit(value uint8) error {
	lw.w.WriteString(strconv.Itoa(int(value)))
	lw.w.WriteByte('\n')
	if err := lw.w.Flush(); err != nil {
		return errors.Wrap(err, "emit")
	}
	lw.count++
	return nil
}

// Count returns the number of values written so far.
func (lw *LineWriter) Count() int {
	return lw.count
}
