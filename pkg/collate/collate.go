// Package collate sorts plotted sheets into sub-project folders.
//
// Plotted files are named <dwg_no>_<name>_<sub_project>.<ext>. [BySubproject]
// moves each file into the folder of its last name segment, and
// [CopyGeneral] copies shared ("general") drawings into every sub-project
// that lists their drawing numbers.
package collate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// ErrCopyWorkerFailed indicates the copy workers could not be scheduled.
var ErrCopyWorkerFailed = errors.New("copy worker failed")

// Transfer is one file moved or copied.
type Transfer struct {
	Src string
	Dst string
}

// BySubproject moves every file directly in dir into dir/<sub>/, where sub
// is the part of the file name after its last underscore. Files without an
// underscore are left in place.
func BySubproject(dir string) ([]Transfer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var (
		moved []Transfer
		merr  error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		ext := filepath.Ext(e.Name())
		name := strings.TrimSpace(strings.TrimSuffix(e.Name(), ext))

		i := strings.LastIndex(name, "_")
		if i < 0 {
			continue
		}
		sub := name[i+1:]
		if sub == "" {
			slog.Warn("skipping file without a sub-project", slog.String("file", e.Name()))

			continue
		}

		t := Transfer{
			Src: filepath.Join(dir, e.Name()),
			Dst: filepath.Join(dir, sub, name+ext),
		}
		if err := move(t); err != nil {
			merr = multierror.Append(merr, err)

			continue
		}

		slog.Debug("moved drawing", slog.String("src", t.Src), slog.String("dst", t.Dst))
		moved = append(moved, t)
	}

	return moved, merr
}

func move(t Transfer) error {
	if err := os.MkdirAll(filepath.Dir(t.Dst), 0o750); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}
	if err := os.Rename(t.Src, t.Dst); err != nil {
		return fmt.Errorf("move %s: %w", t.Src, err)
	}

	return nil
}

// Mapping lists, per sub-project, the general drawing numbers it needs.
type Mapping map[string][]string

// LoadMapping reads a YAML mapping of sub-project names to drawing numbers.
// Numbers may be written as strings or plain scalars.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", drafterrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string][]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", drafterrors.ErrInvalidFormat, path, err)
	}

	m := make(Mapping, len(raw))
	for sub, nodes := range raw {
		for _, n := range nodes {
			if n.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: %s: %q: drawing numbers must be scalars", drafterrors.ErrInvalidFormat, path, sub)
			}
			m[sub] = append(m[sub], n.Value)
		}
	}

	return m, nil
}

// CopyGeneral copies the files in source whose name starts with
// "<number>_" into root/<sub>/ for every number listed under sub in the
// mapping file. Sub-project folders must already exist. Copies run
// concurrently; failures are collected. CopyGeneral always waits for
// started copies before returning, even when ctx is cancelled.
func CopyGeneral(ctx context.Context, root, mappingFile, source string) ([]Transfer, error) {
	mapping, err := LoadMapping(mappingFile)
	if err != nil {
		return nil, err
	}

	byNumber, err := indexByNumber(source)
	if err != nil {
		return nil, err
	}

	var transfers []Transfer
	for _, sub := range slices.Sorted(maps.Keys(mapping)) {
		for _, no := range mapping[sub] {
			for _, src := range byNumber[no] {
				transfers = append(transfers, Transfer{
					Src: src,
					Dst: filepath.Join(root, sub, filepath.Base(src)),
				})
			}
		}
	}

	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	errChan := make(chan error, len(transfers))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		copied []Transfer
	)
	for _, t := range transfers {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()

			return nil, fmt.Errorf("%w: %w", ErrCopyWorkerFailed, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := copyFile(t); err != nil {
				errChan <- err

				return
			}

			mu.Lock()
			copied = append(copied, t)
			mu.Unlock()

			slog.Debug("copied general drawing", slog.String("src", t.Src), slog.String("dst", t.Dst))
		}()
	}

	wg.Wait()
	close(errChan)

	var merr error
	for err := range errChan {
		merr = multierror.Append(merr, err)
	}

	slices.SortFunc(copied, func(a, b Transfer) int {
		return strings.Compare(a.Dst, b.Dst)
	})

	return copied, merr
}

// indexByNumber maps drawing numbers to the files in dir named after them.
func indexByNumber(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	out := map[string][]string{}
	for _, e := range entries {
		no, _, ok := strings.Cut(e.Name(), "_")
		if !ok || !e.Type().IsRegular() {
			continue
		}
		out[no] = append(out[no], filepath.Join(dir, e.Name()))
	}

	return out, nil
}

func copyFile(t Transfer) error {
	in, err := os.Open(t.Src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.Src, err)
	}
	defer in.Close()

	out, err := os.Create(t.Dst)
	if err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	return nil
}
