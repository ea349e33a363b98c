package store

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
	"github.com/peterbourgon/diskv/v3"
)

// cacheSizeMax max memory cache
const cacheSizeMax = 1024 * 16

// DiskStore keeps every key in its own file under one directory,
// mirroring the browser's origin scoped key/value storage.
type DiskStore struct {
	mu sync.Mutex
	dv *diskv.Diskv
}

// NewDiskStore creates a store rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: cacheSizeMax,
		FilePerm:     0o600,
		PathPerm:     0o700,
	})
	return &DiskStore{dv: dv}
}

func (d *DiskStore) Get(_ context.Context) (*Credentials, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	values := map[string]string{}
	for _, key := range Keys {
		if !d.dv.Has(key) {
			continue
		}
		value, err := d.dv.Read(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		values[key] = string(value)
	}
	return decode(values)
}

func (d *DiskStore) Put(_ context.Context, creds *Credentials) error {
	values, err := encode(creds)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range Keys {
		value, ok := values[key]
		if !ok {
			if err := d.erase(key); err != nil {
				return err
			}
			continue
		}
		if err := d.dv.Write(key, []byte(value)); err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

func (d *DiskStore) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range Keys {
		if err := d.erase(key); err != nil {
			return err
		}
	}
	return nil
}

func (d *DiskStore) erase(key string) error {
	if !d.dv.Has(key) {
		return nil
	}
	return trace.Wrap(d.dv.Erase(key))
}
