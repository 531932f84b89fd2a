package lfs

import (
	"fmt"
	"os"
	"sync"
)

// FailPoint names a single operation [Chaos] can be configured to fail.
type FailPoint string

// Recognized fail points, matching the steps of [AtomicWriter.Write].
const (
	FailOpenTemp FailPoint = "open_temp"
	FailWrite    FailPoint = "write"
	FailSync     FailPoint = "sync"
	FailRename   FailPoint = "rename"
	FailSyncDir  FailPoint = "sync_dir"
)

// Chaos wraps an [FS] and injects a deterministic failure at a configured
// fail point, the Nth time it is hit. It exists to drive the "atomic save"
// property from spec §8: after a simulated crash at any step of
// [AtomicWriter.Write], the on-disk file must still equal the last
// successfully saved testcase, never a partial write.
//
// Chaos is intentionally narrow (one fail point, one trigger count) rather
// than a general-purpose fault-injection lab: lithium's durability surface
// is a single write-temp/sync/rename/sync-dir sequence, not a multi-writer
// crash-consistency problem.
type Chaos struct {
	mu       sync.Mutex
	inner    FS
	point    FailPoint
	atCall   int // 1-based call number at which to fail; 0 disables
	calls    map[FailPoint]int
	triggers int
}

// NewChaos wraps inner, ready to have a failure armed with [Chaos.FailNth].
func NewChaos(inner FS) *Chaos {
	return &Chaos{inner: inner, calls: make(map[FailPoint]int)}
}

// FailNth arms the chaos FS to fail the nth (1-based) occurrence of point.
func (c *Chaos) FailNth(point FailPoint, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.point = point
	c.atCall = n
}

// Triggered reports how many times the armed failure actually fired.
func (c *Chaos) Triggered() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.triggers
}

func (c *Chaos) shouldFail(point FailPoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if point != c.point || c.atCall == 0 {
		return false
	}

	c.calls[point]++
	if c.calls[point] != c.atCall {
		return false
	}

	c.triggers++

	return true
}

func (c *Chaos) injected(point FailPoint) error {
	return fmt.Errorf("lfs: injected failure at %s", point)
}

func (c *Chaos) Open(path string) (File, error) {
	f, err := c.inner.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosDirFile{File: f, c: c}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.shouldFail(FailOpenTemp) {
		return nil, c.injected(FailOpenTemp)
	}

	f, err := c.inner.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	return c.inner.ReadFile(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	return c.inner.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.inner.Stat(path)
}

func (c *Chaos) Remove(path string) error {
	return c.inner.Remove(path)
}

func (c *Chaos) RemoveAll(path string) error {
	return c.inner.RemoveAll(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.shouldFail(FailRename) {
		return c.injected(FailRename)
	}

	return c.inner.Rename(oldpath, newpath)
}

// chaosFile wraps a [File] to intercept Write/Sync for fail-point injection.
type chaosFile struct {
	File
	c *Chaos
}

func (f *chaosFile) Write(p []byte) (int, error) {
	if f.c.shouldFail(FailWrite) {
		return 0, f.c.injected(FailWrite)
	}

	return f.File.Write(p)
}

func (f *chaosFile) Sync() error {
	if f.c.shouldFail(FailSync) {
		return f.c.injected(FailSync)
	}

	return f.File.Sync()
}

// chaosDirFile wraps a directory [File] to intercept Sync for FailSyncDir.
type chaosDirFile struct {
	File
	c *Chaos
}

func (f *chaosDirFile) Sync() error {
	if f.c.shouldFail(FailSyncDir) {
		return f.c.injected(FailSyncDir)
	}

	return f.File.Sync()
}

var _ FS = (*Chaos)(nil)
