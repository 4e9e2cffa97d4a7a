// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/mlnoga/skygrid/internal/logging"
	"github.com/mlnoga/skygrid/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var logFile = flag.String("log", "", "save log output to `file`, in addition to stdout")

var chroot = flag.String("chroot", "", "chroot to `dir` before serving (unix only, requires root)")
var setuid = flag.Int64("setuid", -1, "drop privileges to this user id before serving (unix only, requires root)")

var kernelKind = flag.String("kernel", "gauss1d", "kernel kind: gauss1d, gauss2d or tapered_sinc")
var kernelParams = flag.String("kernelParams", "0.05", "comma-separated kernel parameters: widths in degrees, gauss2d position angle in radians")
var support = flag.Float64("support", 0.2, "kernel support radius in degrees")
var hpxMaxRes = flag.Float64("hpxMaxRes", 0.02, "maximum HEALPix cell resolution in degrees")

var n = flag.Int64("n", 100000, "number of synthetic samples for bench")
var c = flag.Int64("c", 1, "number of spectral channels for bench")
var nx = flag.Int64("nx", 512, "output image width in pixels for bench")
var ny = flag.Int64("ny", 512, "output image height in pixels for bench")
var lon0 = flag.Float64("lon0", 180.0, "field center longitude in degrees for bench")
var lat0 = flag.Float64("lat0", 0.0, "field center latitude in degrees for bench")
var field = flag.Float64("field", 2.0, "field of view in degrees for bench")
var threads = flag.Int64("threads", 0, "number of worker goroutines, 0=auto")
var previewOut = flag.String("preview", "", "write a false-color PNG preview of channel 0 to `file`")

func parseKernelParams(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &v); err != nil {
			return nil, fmt.Errorf("invalid kernel parameter %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func main() {
	logWriter := os.Stdout
	debug.SetGCPercent(10)
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Skygrid Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (bench|serve|legal|version)

Commands:
  bench   Grid synthetic samples and report throughput and sanity checks
  serve   Expose gridding as a JSON REST API
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *logFile != "" {
		if err := logging.AlsoToFile(*logFile); err != nil {
			logging.Fatalf("Unable to open logfile '%s'\n", *logFile)
		}
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logging.Fatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logging.Fatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "bench":
		params, perr := parseKernelParams(*kernelParams)
		if perr != nil {
			err = perr
			break
		}
		numThreads := int(*threads)
		if numThreads <= 0 {
			numThreads = runtime.GOMAXPROCS(0)
		}
		err = runBench(benchArgs{
			n: int(*n), c: int(*c), nx: int(*nx), ny: int(*ny),
			lon0: *lon0, lat0: *lat0, fieldDeg: *field,
			kernelKind: *kernelKind, kernelParam: params,
			supportDeg: *support, hpxMaxResDeg: *hpxMaxRes,
			numThreads: numThreads, previewOut: *previewOut,
		}, logWriter)

	case "serve":
		rest.MakeSandbox(*chroot, int(*setuid))
		rest.Serve()

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	if *memprofile != "" {
		f, ferr := os.Create(*memprofile)
		if ferr != nil {
			logging.Fatal("Could not create memory profile: ", ferr)
		}
		defer f.Close()
		runtime.GC()
		if werr := pprof.Lookup("allocs").WriteTo(f, 0); werr != nil {
			logging.Fatal("Could not write allocation profile: ", werr)
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	logging.Sync()
}
