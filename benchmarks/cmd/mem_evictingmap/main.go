// Package main benchmarks the Evicting Map's memory footprint: O(C),
// bounded regardless of trace cardinality, in contrast to Olken.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	mrc "github.com/thedavidchu/masc-thesis"
	"github.com/thedavidchu/masc-thesis/pkg/workload"
)

func main() {
	records := flag.Int("records", 1_000_000, "accesses to generate")
	keySpace := flag.Int("keys", 200_000, "distinct keys")
	theta := flag.Float64("theta", 0.99, "zipf skew")
	slots := flag.Uint64("slots", 50_000, "evicting map slot count")
	rate := flag.Float64("rate", 0.1, "sampling rate")
	flag.Parse()

	runtime.GC()
	debug.FreeOSMemory()

	est, err := mrc.New(mrc.EvictingMapAlgorithm,
		mrc.WithNumBins(1000),
		mrc.WithMaxSize(*slots),
		mrc.WithSamplingRate(*rate),
	)
	if err != nil {
		panic(err)
	}

	keys := workload.GenerateZipfUint64(*records, *keySpace, *theta, 1)
	for _, k := range keys {
		if err := est.Access(k); err != nil {
			panic(err)
		}
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	runtime.GC()
	debug.FreeOSMemory()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf(`{"name":"evicting_map", "records":%d, "keys":%d, "slots":%d, "bytes":%d}`+"\n",
		*records, *keySpace, *slots, mem.Alloc)

	est.Close()
}
