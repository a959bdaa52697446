package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage implements Storage on the local filesystem. Files live under
// <base>/<owner>/, with a JSON metadata sidecar per file under .meta/.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Save(ctx context.Context, ownerID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	ownerDir := filepath.Join(s.basePath, ownerID.String())
	if err := os.MkdirAll(filepath.Join(ownerDir, ".meta"), 0o755); err != nil {
		return nil, fmt.Errorf("create owner directory: %w", err)
	}

	safeName := sanitizeFilename(filename)
	storedName := fmt.Sprintf("%s_%s", fileID.String()[:8], safeName)
	filePath := filepath.Join(ownerDir, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        safeName,
		Size:        size,
		ContentType: contentType,
		Path:        filePath,
		CreatedAt:   time.Now(),
	}
	if err := s.writeMeta(ownerID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

func (s *LocalStorage) Open(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.readMeta(ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(info.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	return f, info, nil
}

func (s *LocalStorage) Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.readMeta(ownerID, fileID)
	if err != nil {
		return err
	}
	if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return os.Remove(s.metaPath(ownerID, fileID))
}

func (s *LocalStorage) List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, ownerID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata directory: %w", err)
	}

	var infos []*FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fileID, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.readMeta(ownerID, fileID)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *LocalStorage) metaPath(ownerID, fileID uuid.UUID) string {
	return filepath.Join(s.basePath, ownerID.String(), ".meta", fileID.String()+".json")
}

func (s *LocalStorage) writeMeta(ownerID uuid.UUID, info *FileInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(ownerID, info.ID), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) readMeta(ownerID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(ownerID, fileID))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &info, nil
}

// sanitizeFilename strips path separators and control characters so a
// hostile filename cannot escape the owner directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
