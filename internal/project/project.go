// Package project manages brand workspaces on disk: metadata, tone of voice,
// reference HTML, image assets and archived articles.
package project

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// DefaultBaseDir holds all workspaces unless configured otherwise.
const DefaultBaseDir = "projects"

// Well-known workspace files.
const (
	ConfigFile    = "config.json"
	ToVFile       = "tov.md"
	ReferenceFile = "reference.html"
	AudienceFile  = "audience.md"
	CJMFile       = "cjm.md"
	AssetsDir     = "assets"
	ArticlesDir   = "articles"
)

// Default file contents for a new workspace.
const (
	DefaultToV       = "# Tone of Voice\n\nDefine your brand's voice here."
	DefaultReference = "<!-- Paste your reference HTML here -->"
)

// Manager owns the workspaces under one base directory.
type Manager struct {
	baseDir string
}

// NewManager returns a Manager rooted at baseDir, creating it if needed.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &Error{Message: "failed to create base directory", Cause: err}
	}
	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the directory holding the workspaces.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func validateBrand(brand string) error {
	switch {
	case strings.TrimSpace(brand) == "":
		return &Error{Brand: brand, Message: "brand name is required"}
	case strings.ContainsAny(brand, `/\`), strings.Contains(brand, ".."), brand == ".":
		return &Error{Brand: brand, Message: "brand name must not contain path separators or '..'"}
	}
	return nil
}

// Path returns the workspace directory of brand.
func (m *Manager) Path(brand string) (string, error) {
	if err := validateBrand(brand); err != nil {
		return "", err
	}
	return filepath.Join(m.baseDir, brand), nil
}

func (m *Manager) filePath(brand, name string) (string, error) {
	dir, err := m.Path(brand)
	if err != nil {
		return "", err
	}
	if !filepath.IsLocal(name) {
		return "", &Error{Brand: brand, Message: "invalid file name " + name}
	}
	return filepath.Join(dir, name), nil
}

// Create makes the workspace for meta.BrandName and writes its metadata.
// Existing tov.md and reference.html files are left alone.
func (m *Manager) Create(meta types.ProjectMeta) (string, error) {
	if err := validateBrand(meta.BrandName); err != nil {
		return "", err
	}
	if err := types.ValidateRequest(meta); err != nil {
		return "", &Error{Brand: meta.BrandName, Message: "invalid metadata", Cause: err}
	}
	dir, _ := m.Path(meta.BrandName)

	if err := os.MkdirAll(filepath.Join(dir, AssetsDir), 0o755); err != nil {
		return "", &Error{Brand: meta.BrandName, Message: "failed to create workspace", Cause: err}
	}

	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return "", &Error{Brand: meta.BrandName, Message: "failed to encode metadata", Cause: err}
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), data, 0o644); err != nil {
		return "", &Error{Brand: meta.BrandName, Message: "failed to write metadata", Cause: err}
	}

	defaults := map[string]string{ToVFile: DefaultToV, ReferenceFile: DefaultReference}
	for name, content := range defaults {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", &Error{Brand: meta.BrandName, Message: "failed to write " + name, Cause: err}
		}
	}

	logging.Component("project").Info().Str("brand", meta.BrandName).Str("path", dir).Msg("project created")
	return dir, nil
}

// List returns the workspace names, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &Error{Message: "failed to list projects", Cause: err}
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Meta reads the workspace metadata.
func (m *Manager) Meta(brand string) (types.ProjectMeta, error) {
	var meta types.ProjectMeta
	content, ok, err := m.ReadFile(brand, ConfigFile)
	if err != nil {
		return meta, err
	}
	if !ok {
		return meta, &Error{Brand: brand, Message: "project does not exist", Cause: fs.ErrNotExist}
	}
	if err := json.Unmarshal([]byte(content), &meta); err != nil {
		return meta, &Error{Brand: brand, Message: "invalid " + ConfigFile, Cause: err}
	}
	return meta, nil
}

// ReadFile returns a workspace file's content. A missing file is reported
// with ok == false and no error.
func (m *Manager) ReadFile(brand, name string) (content string, ok bool, err error) {
	path, err := m.filePath(brand, name)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &Error{Brand: brand, Message: "failed to read " + name, Cause: err}
	}
	return string(data), true, nil
}

// SaveFile writes a workspace file, creating parent directories.
func (m *Manager) SaveFile(brand, name, content string) error {
	path, err := m.filePath(brand, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Brand: brand, Message: "failed to create directory", Cause: err}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &Error{Brand: brand, Message: "failed to write " + name, Cause: err}
	}
	return nil
}

// ToV returns the brand's tone of voice, or "" when none is saved.
func (m *Manager) ToV(brand string) (string, error) {
	content, _, err := m.ReadFile(brand, ToVFile)
	return content, err
}

// SaveToV replaces the brand's tone of voice.
func (m *Manager) SaveToV(brand, tov string) error {
	return m.SaveFile(brand, ToVFile, tov)
}

// Reference returns the brand's reference HTML, or "".
func (m *Manager) Reference(brand string) (string, error) {
	content, _, err := m.ReadFile(brand, ReferenceFile)
	return content, err
}

// SaveAsset stores an uploaded image under assets/. Only the base name of
// filename is used.
func (m *Manager) SaveAsset(brand, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", &Error{Brand: brand, Message: "invalid asset name " + filename}
	}
	path, err := m.filePath(brand, filepath.Join(AssetsDir, name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &Error{Brand: brand, Message: "failed to create assets directory", Cause: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &Error{Brand: brand, Message: "failed to create asset", Cause: err}
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", &Error{Brand: brand, Message: "failed to write asset", Cause: err}
	}
	if err := f.Close(); err != nil {
		return "", &Error{Brand: brand, Message: "failed to write asset", Cause: err}
	}
	return path, nil
}

// AssetNames lists the files in assets/, sorted.
func (m *Manager) AssetNames(brand string) ([]string, error) {
	dir, err := m.filePath(brand, AssetsDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &Error{Brand: brand, Message: "failed to list assets", Cause: err}
	}

	names := []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveArticle archives markdown under articles/ and returns the file path.
func (m *Manager) SaveArticle(brand, topic, markdown string, now time.Time) (string, error) {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(writer.ArchiveName(topic, now))
	rel := filepath.Join(ArticlesDir, name)
	if err := m.SaveFile(brand, rel, markdown); err != nil {
		return "", err
	}
	path, _ := m.filePath(brand, rel)
	return path, nil
}

// Delete removes a workspace. It reports whether anything was deleted.
func (m *Manager) Delete(brand string) (bool, error) {
	dir, err := m.Path(brand)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, &Error{Brand: brand, Message: "failed to delete project", Cause: err}
	}
	logging.Component("project").Info().Str("brand", brand).Msg("project deleted")
	return true, nil
}
