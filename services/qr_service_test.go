package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"backend_extintores/config"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQRService(env *testEnv) *QRService {
	return NewQRService(env.extinguishers, env.images, env.qrCodes, config.NewTestLogger())
}

func TestQRGenerateAndScan(t *testing.T) {
	env := newTestEnv(t)
	f := testutils.CreateFixture(t, env.db)
	e := testutils.CreateTestExtinguisher(t, env.db, f, testutils.Date(2025, 1, 1), nil)
	qr := newQRService(env)

	code, err := qr.Generate(e.ID)
	require.NoError(t, err)
	assert.Equal(t, QRContent(e.ID), code.Content)
	assert.Equal(t, "/qr-codes/"+QRFileName(e.ID), code.URLPath)
	assert.True(t, bytes.HasPrefix(code.PNG, []byte("\x89PNG")))

	stored, err := os.ReadFile(filepath.Join(env.qrCodes.Dir(), QRFileName(e.ID)))
	require.NoError(t, err)
	assert.Equal(t, code.PNG, stored)

	content, err := DecodeQR(code.PNG)
	require.NoError(t, err)
	assert.Equal(t, "EXT:"+EntityID(e.ID), content)

	result, err := qr.Scan(&Upload{Filename: "qr.png", Size: int64(len(code.PNG)), Reader: bytes.NewReader(code.PNG)})
	require.NoError(t, err)
	assert.Equal(t, e.ID, result.Extinguisher.ID)

	// Удаление огнетушителя удаляет и его QR-код
	_, err = env.extinguishers.Delete(e.ID)
	require.NoError(t, err)
	assert.Empty(t, dirEntries(t, env.qrCodes.Dir()))
}

func TestQRGenerateUnknownExtinguisher(t *testing.T) {
	env := newTestEnv(t)

	_, err := newQRService(env).Generate(404)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestQRScanWithoutCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := newQRService(env).Scan(pngUpload(t))
	appErr := AsAppError(err)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "imagen")
}

func TestQRResolve(t *testing.T) {
	env := newTestEnv(t)
	f := testutils.CreateFixture(t, env.db)
	in := newExtinguisherInput(f, testutils.Date(2025, 1, 1))
	in.InternalCode = Some("PQS-100")
	created, err := env.extinguishers.Create(in)
	require.NoError(t, err)
	qr := newQRService(env)

	for _, content := range []string{"EXT:" + EntityID(created.ID), "ext:" + EntityID(created.ID), EntityID(created.ID), "PQS-100"} {
		view, err := qr.Resolve(content)
		require.NoError(t, err, content)
		assert.Equal(t, created.ID, view.ID)
	}

	_, err = qr.Resolve("EXT:abc")
	assert.True(t, IsKind(err, KindValidation))
	_, err = qr.Resolve("desconocido")
	assert.True(t, IsKind(err, KindNotFound))
}
