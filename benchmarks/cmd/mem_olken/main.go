// Package main benchmarks Olken's memory footprint: O(unique keys), the
// dominant cost for production-scale traces.
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
	flag.Parse()

	runtime.GC()
	debug.FreeOSMemory()

	est, err := mrc.New(mrc.AlgorithmOlken, mrc.WithNumBins(1000))
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

	fmt.Printf(`{"name":"olken", "records":%d, "keys":%d, "bytes":%d}`+"\n", *records, *keySpace, mem.Alloc)

	est.Close()
}
