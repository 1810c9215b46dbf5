package detect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
)

func newStores(t *testing.T) (*store.FootageStore, *store.IdentityStore) {
	t.Helper()
	dir := t.TempDir()
	footage, err := store.NewFootageStore(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	identities, err := store.NewIdentityStore(filepath.Join(dir, "nid-bank.json"))
	require.NoError(t, err)
	return footage, identities
}

func startSupervisor(t *testing.T, footage *store.FootageStore, identities *store.IdentityStore, binary string, workers int) *Supervisor {
	t.Helper()
	runner := &Runner{
		Binary:   binary,
		FacesDir: t.TempDir(),
		LogLevel: "INFO",
		Timeout:  10 * time.Second,
	}
	sup := NewSupervisor(runner, footage, identities, "_metadata.json", workers)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		sup.Wait()
	})
	sup.Start(ctx)
	return sup
}

func admit(t *testing.T, footage *store.FootageStore, uploads, id string) Job {
	t.Helper()
	input := filepath.Join(uploads, id+".mp4")
	require.NoError(t, os.WriteFile(input, []byte("fake video payload"), 0o644))
	output := filepath.Join(uploads, id+"_annotated.mp4")

	require.NoError(t, footage.Create(models.Footage{
		ID:                id,
		CameraID:          "CAM01",
		CameraLocation:    "Gulshan",
		OriginalArtifact:  models.Artifact{FileName: id + ".mp4", Path: input},
		AnnotatedArtifact: models.AnnotatedArtifact{FileName: id + "_annotated.mp4", Path: output},
		Status:            models.FootageStatusProcessing,
		UploadedAt:        time.Now().UTC(),
	}))
	return Job{FootageID: id, InputPath: input, OutputPath: output}
}

func waitTerminal(t *testing.T, footage *store.FootageStore, id string) *models.Footage {
	t.Helper()
	var got *models.Footage
	require.Eventually(t, func() bool {
		f, err := footage.Get(id)
		if err != nil || f == nil {
			return false
		}
		got = f
		return f.Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)
	return got
}

func TestSupervisor_CompletesWithMetadata(t *testing.T) {
	footage, identities := newStores(t)
	require.NoError(t, identities.Create(models.IdentityEntry{
		PersonKey:    "pk-1",
		NID:          "1234567890",
		DisplayName:  "John Doe",
		RegisteredAt: time.Now().UTC(),
	}))

	script := writeScript(t, `cp "$in" "$out"
cat > "${out%.*}_metadata.json" <<'EOF'
{
  "video_file": "out.mp4",
  "persons": [
    {"person_id": "P001", "first_detected_frame": 1, "last_detected_frame": 300,
     "frames_detected": 300, "average_confidence": 0.94,
     "identification": {"nid": "1234567890", "name": "john"}},
    {"person_id": "P002", "first_detected_frame": 5, "last_detected_frame": 90,
     "frames_detected": 80, "average_confidence": 0.61,
     "identification": {"nid": "9999999999", "name": "stranger"}}
  ]
}
EOF`)

	sup := startSupervisor(t, footage, identities, script, 1)
	uploads := t.TempDir()
	sup.Submit(admit(t, footage, uploads, "vid1"))

	got := waitTerminal(t, footage, "vid1")
	assert.Equal(t, models.FootageStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.Len(t, got.AnnotatedArtifact.Persons, 2)

	identified := got.AnnotatedArtifact.Persons[0]
	require.NotNil(t, identified.Identification)
	assert.Equal(t, "John Doe", identified.Identification.Name)

	// The nid the registry does not know resolves to unknown.
	assert.Nil(t, got.AnnotatedArtifact.Persons[1].Identification)
}

func TestSupervisor_CompletesWithoutMetadata(t *testing.T) {
	footage, identities := newStores(t)
	script := writeScript(t, `cp "$in" "$out"`)

	sup := startSupervisor(t, footage, identities, script, 1)
	sup.Submit(admit(t, footage, t.TempDir(), "vid1"))

	got := waitTerminal(t, footage, "vid1")
	assert.Equal(t, models.FootageStatusCompleted, got.Status)
	assert.Nil(t, got.AnnotatedArtifact.Persons)
	assert.Empty(t, got.AnnotatedArtifact.Error)
}

func TestSupervisor_FailureRecorded(t *testing.T) {
	footage, identities := newStores(t)
	script := writeScript(t, `exit 1`)

	var mu sync.Mutex
	var events []string
	sup := startSupervisor(t, footage, identities, script, 1)
	sup.OnTransition = func(event string, f *models.Footage) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}
	sup.Submit(admit(t, footage, t.TempDir(), "vid1"))

	got := waitTerminal(t, footage, "vid1")
	assert.Equal(t, models.FootageStatusFailed, got.Status)
	assert.NotEmpty(t, got.AnnotatedArtifact.Error)
	assert.Nil(t, got.CompletedAt)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"footage_failed"}, events)
}

func TestSupervisor_DeletedRecordIsNoop(t *testing.T) {
	footage, identities := newStores(t)
	script := writeScript(t, `sleep 1 >/dev/null 2>&1; cp "$in" "$out"`)

	sup := startSupervisor(t, footage, identities, script, 1)
	sup.Submit(admit(t, footage, t.TempDir(), "vid1"))

	// Delete while the detector is still running.
	require.Eventually(t, func() bool { return sup.ActiveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, err := footage.Delete("vid1")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sup.ActiveCount() == 0 }, 5*time.Second, 20*time.Millisecond)

	got, err := footage.Get("vid1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Submissions that overflow the queue after shutdown must release their
// goroutines instead of blocking on the channel forever.
func TestSupervisor_SubmitAfterShutdownReleasesGoroutines(t *testing.T) {
	footage, identities := newStores(t)
	runner := &Runner{Binary: "detector", Timeout: time.Second}
	sup := NewSupervisor(runner, footage, identities, "_metadata.json", 1)

	ctx, cancel := context.WithCancel(context.Background())
	sup.Start(ctx)
	cancel()
	sup.Wait()

	before := runtime.NumGoroutine()

	// Enough to fill the buffer and spill into overflow goroutines.
	for i := 0; i < 300; i++ {
		sup.Submit(Job{FootageID: fmt.Sprintf("j%03d", i)})
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSupervisor_ConcurrentJobsAllReachTerminalState(t *testing.T) {
	footage, identities := newStores(t)
	script := writeScript(t, `cp "$in" "$out"`)

	sup := startSupervisor(t, footage, identities, script, 4)
	uploads := t.TempDir()

	const n = 12
	for i := 0; i < n; i++ {
		sup.Submit(admit(t, footage, uploads, fmt.Sprintf("vid%02d", i)))
	}

	for i := 0; i < n; i++ {
		got := waitTerminal(t, footage, fmt.Sprintf("vid%02d", i))
		assert.Equal(t, models.FootageStatusCompleted, got.Status)
	}

	records, err := footage.List()
	require.NoError(t, err)
	assert.Len(t, records, n)
}
