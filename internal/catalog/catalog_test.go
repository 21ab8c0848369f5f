package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ashwinyue/next-eval/internal/model"
	"github.com/ashwinyue/next-eval/internal/testutil"
)

func TestLoad(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	dir := t.TempDir()
	qPath := testutil.WriteJSON(t, dir, "questions.json", testutil.Catalog())
	mPath := testutil.WriteJSON(t, dir, "models.json", testutil.Registry())
	rPath := testutil.WriteJSON(t, dir, "scoring_rubric.json", testutil.Rubric())

	data, err := Load(qPath, mPath, rPath)
	assert.NoError(err)
	assert.Equal(6, len(data.Catalog.Questions))
	assert.Equal(3, len(data.Registry.Models))

	criteria, ok := data.Rubric.Criteria(1)
	assert.True(ok)
	assert.True(len(criteria) > 0)
}

func TestLoad_MissingCatalogIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	mPath := testutil.WriteJSON(t, dir, "models.json", testutil.Registry())

	_, err := Load(filepath.Join(dir, "questions.json"), mPath, "")
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("Load() error = %v, want ConfigurationError", err)
	}
	if ce.Reason != ReasonMissing {
		t.Errorf("Reason = %s, want missing", ce.Reason)
	}
	if !IsMissing(err) {
		t.Error("IsMissing() = false")
	}
}

func TestLoad_MalformedRegistry(t *testing.T) {
	dir := t.TempDir()
	qPath := testutil.WriteJSON(t, dir, "questions.json", testutil.Catalog())
	mPath := testutil.WriteFile(t, dir, "models.json", []byte(`{"models": [`))

	_, err := Load(qPath, mPath, "")
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Reason != ReasonMalformed {
		t.Fatalf("Load() error = %v, want malformed ConfigurationError", err)
	}
}

func TestLoadRubric(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing is empty", func(t *testing.T) {
		r, err := LoadRubric(filepath.Join(dir, "nope.json"))
		if err != nil {
			t.Fatalf("LoadRubric() error = %v", err)
		}
		if len(r.Questions) != 0 {
			t.Errorf("expected empty rubric, got %d entries", len(r.Questions))
		}
	})

	t.Run("malformed fails", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "bad.json", []byte("not json"))
		if _, err := LoadRubric(path); err == nil {
			t.Error("LoadRubric() should fail for malformed file")
		}
	})
}

func TestLoadRegistry_Duplicate(t *testing.T) {
	dir := t.TempDir()
	reg := &model.Registry{Models: []model.Model{{ID: "a"}, {ID: "a"}}}
	path := testutil.WriteJSON(t, dir, "models.json", reg)

	_, err := LoadRegistry(path)
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Reason != ReasonInvalid {
		t.Fatalf("LoadRegistry() error = %v, want invalid", err)
	}
}

func TestLoad_EmptyFilesAreInvalid(t *testing.T) {
	for _, content := range []string{`{}`, `null`, `{"questions": [], "meta": {"dimensions": []}}`} {
		t.Run("catalog "+content, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "questions.json", []byte(content))
			_, err := LoadCatalog(path)
			var ce *ConfigurationError
			if !errors.As(err, &ce) || ce.Reason != ReasonInvalid {
				t.Fatalf("LoadCatalog() error = %v, want invalid", err)
			}
		})
	}
	for _, content := range []string{`{}`, `null`, `{"models": []}`} {
		t.Run("registry "+content, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "models.json", []byte(content))
			_, err := LoadRegistry(path)
			var ce *ConfigurationError
			if !errors.As(err, &ce) || ce.Reason != ReasonInvalid {
				t.Fatalf("LoadRegistry() error = %v, want invalid", err)
			}
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Catalog)
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Catalog) {}},
		{
			name:    "question in two dimensions",
			mutate:  func(c *model.Catalog) { c.Meta.Dimensions[1].Questions = append(c.Meta.Dimensions[1].Questions, 1) },
			wantErr: true,
		},
		{
			name:    "question without dimension",
			mutate:  func(c *model.Catalog) { c.Meta.Dimensions[0].Questions = []int{1} },
			wantErr: true,
		},
		{
			name:    "unknown question in dimension",
			mutate:  func(c *model.Catalog) { c.Meta.Dimensions[0].Questions = append(c.Meta.Dimensions[0].Questions, 99) },
			wantErr: true,
		},
		{
			name:    "duplicate question id",
			mutate:  func(c *model.Catalog) { c.Questions = append(c.Questions, c.Questions[0]) },
			wantErr: true,
		},
		{
			name:    "no questions",
			mutate:  func(c *model.Catalog) { c.Questions = nil },
			wantErr: true,
		},
		{
			name:    "no dimensions",
			mutate:  func(c *model.Catalog) { c.Meta.Dimensions = nil },
			wantErr: true,
		},
		{
			name:    "declared dimension mismatch",
			mutate:  func(c *model.Catalog) { c.Questions[0].Dimension = model.DimensionCoding },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := testutil.Catalog()
			tt.mutate(cat)
			if err := ValidateCatalog(cat); (err != nil) != tt.wantErr {
				t.Errorf("ValidateCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
