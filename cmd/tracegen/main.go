// Command tracegen writes synthetic Kia-format trace files for exercising
// mrcgen and the estimators without a production trace on hand, and can
// decode an existing trace back to text with --dump.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	mrc "github.com/thedavidchu/masc-thesis"
	"github.com/thedavidchu/masc-thesis/pkg/workload"
)

// keyNamesToUint64 reads newline-delimited key names from path and hashes
// each into the uint64 key space via mrc.HashString, repeating the name
// list cyclically until records keys have been produced.
func keyNamesToUint64(path string, records int) ([]uint64, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied input path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no key names found", path)
	}

	keys := make([]uint64, records)
	for i := range keys {
		keys[i] = mrc.HashString(names[i%len(names)])
	}
	return keys, nil
}

const kiaRecordSize = 25

func main() {
	os.Exit(run())
}

func run() int {
	dumpPath := flag.String("dump", "", "decode and print an existing Kia trace instead of generating one")
	outPath := flag.String("out", "", "path to write the generated trace")
	records := flag.Int("records", 1_000_000, "number of records to generate")
	keySpace := flag.Int("keys", 100_000, "number of distinct keys")
	dist := flag.String("dist", "zipf", "key distribution: zipf, sequential, uniform")
	theta := flag.Float64("theta", 0.99, "zipf skew parameter")
	seed := flag.Uint64("seed", 1, "random seed")
	keyNamesPath := flag.String("key-names", "", "path to a newline-delimited file of string key names, hashed via wyhash into the uint64 key space; overrides --dist/--keys")
	flag.Parse()

	if *dumpPath != "" {
		return dump(*dumpPath)
	}

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "error: --out is required unless --dump is given")
		return 1
	}

	var keys []uint64
	if *keyNamesPath != "" {
		var err error
		keys, err = keyNamesToUint64(*keyNamesPath, *records)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
	} else {
		switch *dist {
		case "zipf":
			keys = workload.GenerateZipfUint64(*records, *keySpace, *theta, *seed)
		case "sequential":
			keys = workload.GenerateSequentialUint64(*records, *keySpace)
		case "uniform":
			keys = workload.GenerateUniformUint64(*records, *keySpace, *seed)
		default:
			fmt.Fprintf(os.Stderr, "error: unknown --dist %q\n", *dist)
			return 1
		}
	}

	if err := writeTrace(*outPath, keys); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// writeTrace encodes keys as Kia-format records (timestamp:u64,
// command:u8, key:u64, size:u32, ttl:u32, little-endian), one per key, with
// a synthetic GET command byte and zero size/ttl since this package's
// estimators only consume key.
func writeTrace(path string, keys []uint64) error {
	f, err := os.Create(path) //nolint:gosec // operator-supplied output path
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	buf := make([]byte, kiaRecordSize)
	for i, key := range keys {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(i)) //nolint:gosec // timestamp is a monotonic counter
		buf[8] = 0                                         // command: GET
		binary.LittleEndian.PutUint64(buf[9:17], key)
		binary.LittleEndian.PutUint32(buf[17:21], 0) // size
		binary.LittleEndian.PutUint32(buf[21:25], 0) // ttl
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return w.Flush()
}

// dump is the Go analogue of the original's print_trace tool: decode every
// record in path and print it as text.
func dump(path string) int {
	reader, err := mrc.OpenTraceReader(path, mrc.KiaFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer func() { _ = reader.Close() }()

	w := bufio.NewWriter(os.Stdout)
	defer func() { _ = w.Flush() }()

	for i, rec := range reader.All() {
		fmt.Fprintf(w, "%d\tts=%d\tcmd=%d\tkey=%d\tsize=%d\tttl=%d\n",
			i, rec.Timestamp, rec.Command, rec.Key, rec.Size, rec.TTL)
	}
	return 0
}
