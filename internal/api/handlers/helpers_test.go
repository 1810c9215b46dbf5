package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/your-org/vigil/internal/api"
	"github.com/your-org/vigil/internal/api/ws"
	"github.com/your-org/vigil/internal/detect"
	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
	"github.com/your-org/vigil/pkg/dto"
)

type testEnv struct {
	router     *gin.Engine
	footage    *store.FootageStore
	identities *store.IdentityStore
	uploadsDir string
	photosDir  string
}

// newTestEnv wires a full router around temp-dir stores and a shell script
// standing in for the detector binary.
func newTestEnv(t *testing.T, detectorBody string) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	uploadsDir := t.TempDir()
	photosDir := t.TempDir()

	footage, err := store.NewFootageStore(filepath.Join(dataDir, "data.json"))
	require.NoError(t, err)
	identities, err := store.NewIdentityStore(filepath.Join(dataDir, "nid-bank.json"))
	require.NoError(t, err)

	runner := &detect.Runner{
		Binary:   writeDetectorScript(t, detectorBody),
		FacesDir: t.TempDir(),
		LogLevel: "INFO",
		Timeout:  10 * time.Second,
	}
	supervisor := detect.NewSupervisor(runner, footage, identities, "_metadata.json", 2)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		supervisor.Wait()
	})
	supervisor.Start(ctx)

	hub := ws.NewHub()
	go hub.Run()
	supervisor.OnTransition = func(event string, f *models.Footage) {
		hub.BroadcastEvent(&dto.WSEvent{Type: event, FootageID: f.ID})
	}

	router := api.NewRouter(api.RouterConfig{
		Footage:        footage,
		Identities:     identities,
		Supervisor:     supervisor,
		Hub:            hub,
		UploadsDir:     uploadsDir,
		PhotosDir:      photosDir,
		OutputSuffix:   "_annotated.mp4",
		MetadataSuffix: "_metadata.json",
	})

	return &testEnv{
		router:     router,
		footage:    footage,
		identities: identities,
		uploadsDir: uploadsDir,
		photosDir:  photosDir,
	}
}

func writeDetectorScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detector.sh")
	script := "#!/bin/sh\n" + `
in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --source) in="$2"; shift 2 ;;
    --output) out="$2"; shift 2 ;;
    *) shift 2 ;;
  esac
done
` + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// blockingDetector keeps jobs in Processing for the duration of a test.
const blockingDetector = `sleep 5 >/dev/null 2>&1`

// copyDetector completes immediately without metadata.
const copyDetector = `cp "$in" "$out"`

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, fileName string, fileContent []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = io.Copy(fw, bytes.NewReader(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadFootage(t *testing.T, e *testEnv, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := multipartRequest(t, "/footage", map[string]string{
		"cameraId":       "CAM01",
		"cameraLocation": "Dhanmondi",
		"footageId":      id,
	}, "videoFootage", "clip.mp4", []byte("fake video payload"))
	return e.do(t, req)
}
