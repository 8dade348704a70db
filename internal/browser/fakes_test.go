package browser

import (
	"context"
	"io"
	"sync"
	"testing"

	"catalog-admin/internal/catalogtypes"
)

type call struct {
	Op   string
	Dir  string
	Name string
}

// fakeAPI records every request. Responses are looked up by directory.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []call
	listings map[string]*catalogtypes.FilesResponse
	err      error
	// block, when set, holds List for the given dir until the channel is closed.
	block map[string]chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{listings: map[string]*catalogtypes.FilesResponse{}, block: map[string]chan struct{}{}}
}

func (f *fakeAPI) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeAPI) List(ctx context.Context, dir string) (*catalogtypes.FilesResponse, error) {
	f.mu.Lock()
	ch := f.block[dir]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	if err := f.record(call{Op: "list", Dir: dir}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, ok := f.listings[dir]; ok {
		return resp, nil
	}
	return &catalogtypes.FilesResponse{Categories: []catalogtypes.Category{}}, nil
}

func (f *fakeAPI) CreateFolder(ctx context.Context, dir, name string) error {
	return f.record(call{Op: "createFolder", Dir: dir, Name: name})
}

func (f *fakeAPI) Upload(ctx context.Context, dir string, file File) error {
	if file.Reader != nil {
		io.Copy(io.Discard, file.Reader)
	}
	return f.record(call{Op: "upload", Dir: dir, Name: file.Name})
}

func (f *fakeAPI) Delete(ctx context.Context, dir, path string) error {
	return f.record(call{Op: "delete", Dir: dir, Name: path})
}

type fakeToaster struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (t *fakeToaster) Success(msg string) {
	t.mu.Lock()
	t.success = append(t.success, msg)
	t.mu.Unlock()
}

func (t *fakeToaster) Error(msg string) {
	t.mu.Lock()
	t.failures = append(t.failures, msg)
	t.mu.Unlock()
}

type confirmFunc func(string) bool

func (f confirmFunc) Confirm(msg string) bool { return f(msg) }

func openGate(t *testing.T) *Gate {
	t.Helper()
	g := NewGate(NewSharedSecret("pw"))
	if err := g.Login(context.Background(), "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return g
}
