package logging

import (
	"fmt"
	"runtime"
	"time"
)

type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// A package-level flag so the config struct doesn't have to be threaded
// through every numerical routine in the project.
var (
	Mode Flag = Nil
)

// MemString returns a string containing various statistics on the current
// memory usage of the process.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}

// Timer reports how long a stage took when performance logging is on.
// Use it as
//
//	defer logging.Timer("grid evaluation")()
func Timer(stage string) func() {
	if Mode != Performance && Mode != Debug {
		return func() {}
	}
	start := time.Now()
	return func() {
		fmt.Printf("%s took %s\n", stage, time.Since(start))
	}
}
