package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
}

func TestFindDBTDir(t *testing.T) {
	t.Run("single match at depth", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "analytics/warehouse/dbt", "analytics/other")

		got, err := FindDBTDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "analytics", "warehouse", "dbt"), got)
	})

	t.Run("shortest path wins", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root,
			"deeply/nested/tree/dbt",
			"dbt",
			"mid/dbt",
		)

		got, err := FindDBTDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "dbt"), got)
	})

	t.Run("no match", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "models", "seeds")

		_, err := FindDBTDir(root)
		assert.ErrorIs(t, err, ErrDBTDirNotFound)
	})

	t.Run("skips vendor-like directories", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "node_modules/some-pkg/dbt", "src/dbt")

		got, err := FindDBTDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "src", "dbt"), got)
	})

	t.Run("does not descend into a dbt directory", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "proj/dbt/inner/dbt")

		got, err := FindDBTDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "proj", "dbt"), got)
	})
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "conf", "models/dbt")

	rel, err := RelativeTo(filepath.Join(root, "conf"), filepath.Join(root, "models", "dbt"))
	require.NoError(t, err)
	assert.Equal(t, "../models/dbt", rel)
}

func TestNormalizeSlashes(t *testing.T) {
	assert.Equal(t, "../models/dbt", NormalizeSlashes(`..\models\dbt`))
	assert.Equal(t, "a/b", NormalizeSlashes("a//b"))
	assert.Equal(t, "./dbt", NormalizeSlashes("./dbt"))
}
