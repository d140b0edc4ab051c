package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-content-machine/internal/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	return m
}

func TestCreate(t *testing.T) {
	m := newTestManager(t)

	dir, err := m.Create(types.ProjectMeta{BrandName: "Bakery", Industry: "Food", CMS: "opencart"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.BaseDir(), "Bakery"), dir)
	assert.DirExists(t, filepath.Join(dir, AssetsDir))

	tov, err := m.ToV("Bakery")
	require.NoError(t, err)
	assert.Equal(t, DefaultToV, tov)

	ref, err := m.Reference("Bakery")
	require.NoError(t, err)
	assert.Equal(t, DefaultReference, ref)

	meta, err := m.Meta("Bakery")
	require.NoError(t, err)
	assert.Equal(t, "Food", meta.Industry)
	assert.Equal(t, "opencart", meta.CMS)
	assert.False(t, meta.CreatedAt.IsZero())
}

func TestCreate_KeepsExistingFiles(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, err)
	require.NoError(t, m.SaveToV("Bakery", "Warm and friendly."))

	_, err = m.Create(types.ProjectMeta{BrandName: "Bakery", Industry: "Food"})
	require.NoError(t, err)

	tov, err := m.ToV("Bakery")
	require.NoError(t, err)
	assert.Equal(t, "Warm and friendly.", tov)
}

func TestCreate_InvalidBrand(t *testing.T) {
	m := newTestManager(t)
	for _, brand := range []string{"", "  ", "a/b", `a\b`, "..", "x..y", "."} {
		t.Run(brand, func(t *testing.T) {
			_, err := m.Create(types.ProjectMeta{BrandName: brand})
			var projErr *Error
			assert.ErrorAs(t, err, &projErr)
		})
	}
}

func TestCreate_InvalidMeta(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery", URL: "not a url"})
	assert.ErrorContains(t, err, "invalid metadata")
}

func TestList(t *testing.T) {
	m := newTestManager(t)
	names, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, brand := range []string{"Zeta", "Alpha"} {
		_, err := m.Create(types.ProjectMeta{BrandName: brand})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(m.BaseDir(), "stray.txt"), []byte("x"), 0o644))

	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Zeta"}, names)
}

func TestReadFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, err)

	content, ok, err := m.ReadFile("Bakery", "missing.md")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, content)

	require.NoError(t, m.SaveFile("Bakery", "notes/plan.md", "plan"))
	content, ok, err = m.ReadFile("Bakery", "notes/plan.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plan", content)

	_, _, err = m.ReadFile("Bakery", "../../etc/passwd")
	assert.Error(t, err)
}

func TestSaveAsset(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, err)

	path, err := m.SaveAsset("Bakery", "../../croissant.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.BaseDir(), "Bakery", AssetsDir, "croissant.jpg"), path)

	_, err = m.SaveAsset("Bakery", "bread.png", strings.NewReader("png"))
	require.NoError(t, err)

	names, err := m.AssetNames("Bakery")
	require.NoError(t, err)
	assert.Equal(t, []string{"bread.png", "croissant.jpg"}, names)
}

func TestAssetNames_NoProject(t *testing.T) {
	m := newTestManager(t)
	names, err := m.AssetNames("Nobody")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSaveArticle(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, err)

	now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	path, err := m.SaveArticle("Bakery", "Rye vs/wheat", "# Rye", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.BaseDir(), "Bakery", ArticlesDir, "20240305_143000_Rye_vs_wheat.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Rye", string(data))
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create(types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, err)

	deleted, err := m.Delete("Bakery")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.Delete("Bakery")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = m.Delete("../x")
	assert.Error(t, err)
}

func TestMeta_Missing(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Meta("Nobody")
	assert.Error(t, err)
}
