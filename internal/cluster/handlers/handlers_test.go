package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/ipc"
)

type call struct {
	name     string
	workerID int
	jobID    string
}

type fakeDispatcher struct {
	calls []call
}

func (f *fakeDispatcher) RequestJob(domain.ChannelIdentifier, string) error { return nil }
func (f *fakeDispatcher) Submit(domain.TaskedIdentifier) error              { return nil }
func (f *fakeDispatcher) Requeue([]domain.TaskedIdentifier)                 {}

func (f *fakeDispatcher) OnIncrement(workerID int, jobID string) {
	f.calls = append(f.calls, call{"increment", workerID, jobID})
}

func (f *fakeDispatcher) OnDecrement(workerID int, jobID string) {
	f.calls = append(f.calls, call{"decrement", workerID, jobID})
}

func (f *fakeDispatcher) OnResult(workerID int, result domain.TaskResult) {
	f.calls = append(f.calls, call{"result", workerID, result.TaskedIdentifier.JobID})
}

func (f *fakeDispatcher) OnError(workerID int, failure domain.TaskFailure) {
	f.calls = append(f.calls, call{"error", workerID, failure.TaskedIdentifier.JobID})
}

func TestHandlersRouteToDispatcher(t *testing.T) {
	d := &fakeDispatcher{}
	hdls := New(d, logging.NewNopLogger())
	job := domain.ChannelIdentifier{JobID: "j"}.WithTask("t")

	inc, err := ipc.NewIncrement("j")
	require.NoError(t, err)
	dec, err := ipc.NewDecrement("j")
	require.NoError(t, err)
	res, err := ipc.NewResult(domain.TaskResult{TaskedIdentifier: job, Data: []byte(`1`)})
	require.NoError(t, err)
	fail, err := ipc.NewError(domain.TaskFailure{TaskedIdentifier: job, Stage: domain.StageStream})
	require.NoError(t, err)

	for _, msg := range []ipc.Message{inc, res, fail, dec} {
		h, ok := hdls[msg.Type]
		require.True(t, ok, ipc.TypeName(msg.Type))
		require.NoError(t, h.HandleMessage(3, msg))
	}

	assert.Equal(t, []call{
		{"increment", 3, "j"},
		{"result", 3, "j"},
		{"error", 3, "j"},
		{"decrement", 3, "j"},
	}, d.calls)
}

func TestHandlersRejectMalformedPayloads(t *testing.T) {
	d := &fakeDispatcher{}
	hdls := New(d, logging.NewNopLogger())

	for _, typ := range []byte{ipc.MsgIncrementRequests, ipc.MsgDecrementRequests, ipc.MsgTaskResult, ipc.MsgError} {
		err := hdls[typ].HandleMessage(1, ipc.Message{Type: typ, Payload: []byte(`{broken`)})
		assert.Error(t, err, ipc.TypeName(typ))
	}
	assert.Empty(t, d.calls)
}

func TestNoHandlerForTask(t *testing.T) {
	_, ok := New(&fakeDispatcher{}, logging.NewNopLogger())[ipc.MsgTask]
	assert.False(t, ok)
}
