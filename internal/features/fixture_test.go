package features

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khanglvm/forkfeat/internal/storage"
)

func newFixtureStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	s := storage.NewStorage(filepath.Join(t.TempDir(), "forks.sqlite"), false)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func addCommand(t *testing.T, s *storage.SQLiteStorage, participant, videotime, command, eclipse string) {
	t.Helper()
	require.NoError(t, s.InsertInteraction(context.Background(), storage.InteractionEvent{
		Participant:    participant,
		VideoTime:      videotime,
		Command:        command,
		EclipseCommand: eclipse,
	}))
}

func addCode(t *testing.T, s *storage.SQLiteStorage, participant, videotime, retrospective string, forks int) {
	t.Helper()
	require.NoError(t, s.InsertAnnotated(context.Background(), storage.AnnotatedEvent{
		Participant:   participant,
		VideoTime:     videotime,
		Retrospective: retrospective,
		Forks:         forks,
	}))
}
