package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ashwinyue/next-eval/internal/config"
	"github.com/ashwinyue/next-eval/internal/testutil"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	name := ObjectName("clear_scores", now)
	if !strings.HasPrefix(name, "clear_scores/20260301T083000Z-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected object name %q", name)
	}
	if ObjectName("clear_scores", now) == name {
		t.Error("object names must be unique")
	}
	if !strings.HasPrefix(ObjectName("", now), "manual/") {
		t.Error("empty reason should default to manual")
	}
}

func TestLocalStorage(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	ctx := context.Background()

	s, err := NewLocalStorage(t.TempDir())
	assert.NoError(err)

	content := []byte(`{"answers":[]}`)
	name, err := s.Save(ctx, &SaveRequest{
		Name:   "manual/a.json",
		Size:   int64(len(content)),
		Reader: bytes.NewReader(content),
	})
	assert.NoError(err)
	assert.Equal("manual/a.json", name)

	_, err = s.Save(ctx, &SaveRequest{Name: "clear_answers/b.json", Reader: strings.NewReader("{}")})
	assert.NoError(err)

	objects, err := s.List(ctx)
	assert.NoError(err)
	assert.Equal(2, len(objects))
	assert.Equal("clear_answers/b.json", objects[0].Name)
	assert.Equal(int64(len(content)), objects[1].Size)

	rc, err := s.Get(ctx, name)
	assert.NoError(err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	assert.NoError(err)
	assert.Equal(content, got)
}

func TestLocalStorage_RejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../x.json", "/etc/passwd", ""} {
		if _, err := s.Save(context.Background(), &SaveRequest{Name: name, Reader: strings.NewReader("{}")}); err == nil {
			t.Errorf("Save(%q) should fail", name)
		}
	}
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, `{"answers":[`), nil
	}
	return 0, errors.New("connection reset")
}

func TestLocalStorage_FailedWriteLeavesNoFile(t *testing.T) {
	assert := testutil.NewAssertHelper(t)
	ctx := context.Background()

	s, err := NewLocalStorage(t.TempDir())
	assert.NoError(err)

	_, err = s.Save(ctx, &SaveRequest{Name: "manual/partial.json", Reader: &failingReader{}})
	assert.Error(err)

	objects, err := s.List(ctx)
	assert.NoError(err)
	assert.Equal(0, len(objects))
}

func TestNewStorageFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.BackupConfig
		wantNil bool
		wantErr bool
	}{
		{name: "disabled", cfg: config.BackupConfig{Enabled: false}, wantNil: true},
		{name: "local", cfg: config.BackupConfig{Enabled: true, Type: "local", LocalPath: t.TempDir()}},
		{name: "minio missing config", cfg: config.BackupConfig{Enabled: true, Type: "minio"}, wantErr: true},
		{name: "unknown type", cfg: config.BackupConfig{Enabled: true, Type: "cos"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStorageFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (s == nil) != tt.wantNil {
				t.Errorf("storage = %v, wantNil %v", s, tt.wantNil)
			}
		})
	}
}
