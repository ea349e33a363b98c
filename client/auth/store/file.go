package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/gravitational/trace"
	"github.com/viant/afs"
)

// FileStore persists credentials as one JSON snapshot at an afs URL
// (a local path, file:// or any storage scheme registered with afs).
type FileStore struct {
	mu  sync.Mutex
	URL string
	fs  afs.Service
}

type fileSnapshot struct {
	Values map[string]string `json:"values"`
}

// NewFileStore creates a store persisting at URL.
func NewFileStore(URL string) *FileStore {
	return &FileStore{URL: URL, fs: afs.New()}
}

func (f *FileStore) Get(ctx context.Context) (*Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if !exists {
		return &Credentials{}, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, trace.Wrap(err, "malformed credential file %v", f.URL)
	}
	return decode(snap.Values)
}

func (f *FileStore) Put(ctx context.Context, creds *Credentials) error {
	values, err := encode(creds)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileSnapshot{Values: values}, "", "  ")
	if err != nil {
		return trace.Wrap(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return trace.Wrap(f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)))
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return trace.Wrap(err)
	}
	if !exists {
		return nil
	}
	return trace.Wrap(f.fs.Delete(ctx, f.URL))
}
