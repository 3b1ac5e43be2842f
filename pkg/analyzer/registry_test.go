package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdict-tools/verdict/pkg/models"
	"github.com/verdict-tools/verdict/pkg/source"
)

type stubAnalyzer struct {
	Base
	id int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{Category: models.Category(s.Name()), Score: 100, Status: models.StatusPass}, nil
}

func TestRegistryCreateReturnsFreshInstances(t *testing.T) {
	r := NewRegistry(nil)
	serial := 0
	r.Register("stub", func(config Config) Analyzer {
		serial++
		return &stubAnalyzer{Base: NewBase("stub", config), id: serial}
	})

	a, err := r.Create("stub", DefaultConfig())
	require.NoError(t, err)
	b, err := r.Create("stub", DefaultConfig())
	require.NoError(t, err)
	assert.NotEqual(t, a.(*stubAnalyzer).id, b.(*stubAnalyzer).id, "Create must not memoize")
}

func TestRegistryInstanceMemoizes(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("stub", func(config Config) Analyzer {
		return &stubAnalyzer{Base: NewBase("stub", config)}
	})

	a, err := r.Instance("stub", DefaultConfig())
	require.NoError(t, err)
	b, err := r.Instance("stub", DefaultConfig())
	require.NoError(t, err)
	assert.Same(t, a, b, "Instance must return the singleton")

	r.ClearInstances()
	c, err := r.Instance("stub", DefaultConfig())
	require.NoError(t, err)
	assert.NotSame(t, a, c, "ClearInstances must reset singletons")
}

func TestRegistryUnknownTypeListsValid(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("quality", func(config Config) Analyzer { return &stubAnalyzer{Base: NewBase("quality", config)} })
	r.Register("security", func(config Config) Analyzer { return &stubAnalyzer{Base: NewBase("security", config)} })

	_, err := r.Create("nope", DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, err.Error(), "quality")
	assert.Contains(t, err.Error(), "security")
}

func TestRegistryReRegisterOverwrites(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("stub", func(config Config) Analyzer { return &stubAnalyzer{Base: NewBase("old", config)} })
	r.Register("stub", func(config Config) Analyzer { return &stubAnalyzer{Base: NewBase("new", config)} })

	a, err := r.Create("stub", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "new", a.Name())
}

func TestBaseDefaults(t *testing.T) {
	b := NewBase("x", Config{Enabled: true})
	assert.Equal(t, 2*time.Minute, b.Timeout(), "zero timeout falls back to the default")
	assert.True(t, b.Validate())
	assert.Equal(t, 7.5, b.Threshold("missing", 7.5))
}
