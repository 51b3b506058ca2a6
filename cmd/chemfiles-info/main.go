// Command chemfiles-info prints a trajectory's step count, unit cell, and
// atom count.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/chemfiles/go-chemfiles"
	_ "github.com/chemfiles/go-chemfiles/dcd"
	_ "github.com/chemfiles/go-chemfiles/netcdf"
)

func main() {
	log.SetFlags(0)

	format := flag.String("format", "", "format hint (e.g. \"DCD\", \"Amber NetCDF\"); guessed from the extension if empty")
	step := flag.Uint64("step", 0, "step to report on")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalf("usage: %s [-format NAME] [-step N] <trajectory>", os.Args[0])
	}
	path := flag.Arg(0)

	traj, err := chemfiles.Open(path, chemfiles.ModeRead, *format)
	if err != nil {
		log.Fatal(err)
	}
	defer traj.Close()

	log.Printf("%s: %d steps", path, traj.NSteps())

	frame := chemfiles.NewFrame()
	if err := traj.ReadStep(*step, frame); err != nil {
		log.Fatal(err)
	}

	a, b, c := frame.Cell.Lengths()
	alpha, beta, gamma := frame.Cell.Angles()
	log.Printf("step %d: %d atoms, cell %s (%.4f, %.4f, %.4f) / (%.2f, %.2f, %.2f)",
		*step, frame.Size(), frame.Cell.Shape(), a, b, c, alpha, beta, gamma)
}
