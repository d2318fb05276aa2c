package executor

import (
	"context"
	"testing"

	"github.com/mikey/mail-sorter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type move struct {
	uids   []uint32
	folder string
}

type fakeMover struct {
	moves    []move
	flagged  []uint32
	expunges int
}

func (m *fakeMover) Move(ctx context.Context, uids []uint32, folder string) error {
	m.moves = append(m.moves, move{uids: uids, folder: folder})
	return nil
}

func (m *fakeMover) AddFlags(ctx context.Context, uids []uint32, flags []string) error {
	m.flagged = append(m.flagged, uids...)
	return nil
}

func (m *fakeMover) Expunge(ctx context.Context) error {
	m.expunges++
	return nil
}

func TestExecuteKeep(t *testing.T) {
	mover := &fakeMover{}
	exec := New(mover, "Junk", zap.NewNop(), false)

	require.NoError(t, exec.Execute(context.Background(), 7, core.Keep()))
	assert.Empty(t, mover.moves)
	assert.Empty(t, mover.flagged)
}

func TestExecuteMove(t *testing.T) {
	mover := &fakeMover{}
	exec := New(mover, "Junk", zap.NewNop(), false)

	require.NoError(t, exec.Execute(context.Background(), 7, core.MoveTo("Bills")))
	require.Len(t, mover.moves, 1)
	assert.Equal(t, move{uids: []uint32{7}, folder: "Bills"}, mover.moves[0])
}

func TestExecuteJunk(t *testing.T) {
	mover := &fakeMover{}
	exec := New(mover, "Junk", zap.NewNop(), false)

	require.NoError(t, exec.Execute(context.Background(), 9, core.Junk()))
	require.Len(t, mover.moves, 1)
	assert.Equal(t, move{uids: []uint32{9}, folder: "Junk"}, mover.moves[0])
	assert.Equal(t, []uint32{9}, mover.flagged, "junked mail is marked seen")
}

func TestExecuteDryRun(t *testing.T) {
	mover := &fakeMover{}
	exec := New(mover, "Junk", zap.NewNop(), true)
	ctx := context.Background()

	require.NoError(t, exec.Execute(ctx, 1, core.MoveTo("Bills")))
	require.NoError(t, exec.Execute(ctx, 2, core.Junk()))
	assert.Empty(t, mover.moves)
	assert.Empty(t, mover.flagged)
}
