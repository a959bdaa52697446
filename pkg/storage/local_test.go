package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	owner := uuid.New()

	info, err := s.Save(ctx, owner, "orcamentos.csv", "text/csv", strings.NewReader("modelo,preco\n"))
	require.NoError(t, err)
	assert.Equal(t, "orcamentos.csv", info.Name)
	assert.Equal(t, int64(13), info.Size)

	rc, got, err := s.Open(ctx, owner, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, info.ID, got.ID)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "modelo,preco\n", string(data))

	files, err := s.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, s.Delete(ctx, owner, info.ID))
	files, err = s.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalStorage_ListOtherOwnerIsEmpty(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.Save(ctx, uuid.New(), "a.csv", "text/csv", strings.NewReader("x"))
	require.NoError(t, err)

	files, err := s.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "etc_passwd", sanitizeFilename("../../etc\\passwd"))
	assert.Equal(t, "upload", sanitizeFilename(""))
	assert.Equal(t, "planilha final.xlsx", sanitizeFilename("planilha final.xlsx"))
}
