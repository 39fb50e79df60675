// Package adapters はスナップショット文書のファイル保存を提供します。
package adapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/fsutil"
)

// SnapshotStore は事前計算済み文書を1ファイル1文書で保存します。
// 書き込みは一時ファイル経由の rename なので、読み手が書きかけの文書を見ることはありません。
type SnapshotStore struct {
	dir string
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore は dir を保存先とする SnapshotStore を生成します。
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Dir returns the storage directory.
func (s *SnapshotStore) Dir() string { return s.dir }

// SaveRanking writes themes_<period>.json.
func (s *SnapshotStore) SaveRanking(doc entity.RankingDocument) error {
	return s.write(entity.RankingFile(mdentity.Period(doc.Period)), doc)
}

// SaveDetail writes theme_<id>_<period>.json.
func (s *SnapshotStore) SaveDetail(doc entity.ThemeDetailDocument) error {
	return s.write(entity.DetailFile(doc.ID, mdentity.Period(doc.Period)), doc)
}

// SaveHeatmap writes heatmap_<period>.json.
func (s *SnapshotStore) SaveHeatmap(doc entity.HeatmapDocument) error {
	return s.write(entity.HeatmapFile(mdentity.Period(doc.Period)), doc)
}

// RankingGeneratedAt returns the generated_at field of the ranking document.
func (s *SnapshotStore) RankingGeneratedAt(period mdentity.Period) (string, error) {
	var head struct {
		GeneratedAt string `json:"generated_at"`
	}
	name := entity.RankingFile(period)
	if err := fsutil.ReadJSON(filepath.Join(s.dir, name), &head); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, entity.ErrSnapshotNotFound)
		}
		return "", err
	}
	return head.GeneratedAt, nil
}

// ReadRanking returns the raw ranking document.
func (s *SnapshotStore) ReadRanking(period mdentity.Period) ([]byte, error) {
	return s.read(entity.RankingFile(period))
}

// ReadDetail returns the raw detail document of a theme.
func (s *SnapshotStore) ReadDetail(themeID string, period mdentity.Period) ([]byte, error) {
	if themeID == "" || strings.ContainsAny(themeID, `/\`) || strings.Contains(themeID, "..") {
		return nil, fmt.Errorf("theme %q: %w", themeID, entity.ErrSnapshotNotFound)
	}
	return s.read(entity.DetailFile(themeID, period))
}

// ReadHeatmap returns the raw heatmap document.
func (s *SnapshotStore) ReadHeatmap(period mdentity.Period) ([]byte, error) {
	return s.read(entity.HeatmapFile(period))
}

func (s *SnapshotStore) write(name string, doc any) error {
	if err := fsutil.WriteJSON(filepath.Join(s.dir, name), doc); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (s *SnapshotStore) read(name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, entity.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}
