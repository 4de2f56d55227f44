// Package internal holds helpers shared by the lineagesync commands.
package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/internal/rand"
)

func writeProfIfNExist(path string, name string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		var fprof *os.File
		fprof, err = os.Create(path)
		if err != nil {
			return err
		}
		defer fprof.Close()
		return pprof.Lookup(name).WriteTo(fprof, 0)
	}
	return nil
}

// MinProfMB is the heap size from which a memory profile is written
type MinProfMB struct {
	Alloc   uint64
	HeapSys uint64
}

// MaybeMemProfParams configures MaybeMemProf
type MaybeMemProfParams struct {
	MemStats   *runtime.MemStats
	MinMB      MinProfMB
	DestDir    string
	NamePrefix string
}

func maybeMemProfDefaults(params MaybeMemProfParams) MaybeMemProfParams {
	if params.DestDir == "" {
		params.DestDir = os.TempDir()
	}
	if params.NamePrefix == "" {
		params.NamePrefix = "mem_" + rand.LetterString(3)
	}
	if params.MemStats == nil {
		mstats := new(runtime.MemStats)
		runtime.ReadMemStats(mstats)
		params.MemStats = mstats
	}
	return params
}

// MaybeMemProf writes heap and allocation profiles once the heap has grown
// past the thresholds. Existing profiles are not overwritten.
func MaybeMemProf(params MaybeMemProfParams) error {
	params = maybeMemProfDefaults(params)
	if params.MemStats.Alloc/1024/1024 < params.MinMB.Alloc ||
		params.MemStats.HeapSys/1024/1024 < params.MinMB.HeapSys {
		return nil
	}
	if _, err := os.Stat(params.DestDir); os.IsNotExist(err) {
		return nil
	}
	basePath := filepath.Join(params.DestDir, strings.Join([]string{
		params.NamePrefix,
		strconv.Itoa(int(params.MinMB.Alloc)),
		strconv.Itoa(int(params.MinMB.HeapSys)),
	}, "-"))
	if err := writeProfIfNExist(basePath+".mem.prof", "heap"); err != nil {
		return err
	}
	return writeProfIfNExist(basePath+".alloc.prof", "allocs")
}

// MemPollParams configures MemPoll
type MemPollParams struct {
	PollMs  uint
	MinMBs  []MinProfMB
	DestDir string
	Logger  *zap.Logger
}

func memPollDefaults(params MemPollParams) MemPollParams {
	if params.PollMs == 0 {
		params.PollMs = 50
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return params
}

func memPoll(params MemPollParams, done <-chan struct{}) {
	mstats := new(runtime.MemStats)
	var maxHeapThusFar uint64
	ticker := time.NewTicker(time.Duration(params.PollMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		runtime.ReadMemStats(mstats)
		if mstats.HeapSys > maxHeapThusFar {
			maxHeapThusFar = mstats.HeapSys
			params.Logger.Debug("grew heap",
				zap.Uint64("MiB for heap (un-GC)", mstats.Alloc/1024/1024),
				zap.Uint64("MiB for heap (max ever)", mstats.HeapSys/1024/1024),
			)
		}
		for _, minMB := range params.MinMBs {
			if err := MaybeMemProf(MaybeMemProfParams{
				MemStats:   mstats,
				MinMB:      minMB,
				DestDir:    params.DestDir,
				NamePrefix: "mem_poll",
			}); err != nil {
				params.Logger.Error("memory profiling error", zap.Error(err))
			}
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// MemPoll watches the heap in the background until the returned function is called
func MemPoll(params MemPollParams) (stop func()) {
	params = memPollDefaults(params)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		memPoll(params, done)
	}()
	return func() {
		close(done)
		<-finished
	}
}
