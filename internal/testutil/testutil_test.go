package testutil

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/latticeglyph/internal/lattice"
)

func TestCallCounter(t *testing.T) {
	c := NewCallCounter()
	assert.Equal(t, 0, c.Count("encode"))

	c.Inc("encode")
	c.Inc("encode")
	c.Inc("render")
	assert.Equal(t, 2, c.Count("encode"))
	assert.Equal(t, 1, c.Count("render"))

	c.Reset()
	assert.Equal(t, 0, c.Count("encode"))
}

func TestCallCounter_ThreadSafe(t *testing.T) {
	c := NewCallCounter()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc("x")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, c.Count("x"))
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("sq")
	assert.Equal(t, "sq-1", gen.Generate())
	assert.Equal(t, "sq-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "sq-1", gen.Generate())

	assert.Equal(t, "lattice-1", NewSequenceGenerator("").Generate())
}

func TestSequenceGenerator_Unique(t *testing.T) {
	gen := NewSequenceGenerator("p")
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}

// testutil is linked into the glyph binary through the harness, so its
// non-test files must not pull in the test framework.
func TestNoTestFrameworkImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			assert.NotEqual(t, "testing", path, name)
			assert.False(t, strings.HasPrefix(path, "github.com/stretchr/testify"), "%s imports %s", name, path)
		}
	}
}

func TestSquareLatticeIsValid(t *testing.T) {
	require.NoError(t, lattice.Validate(SquareLattice("square")))
}
