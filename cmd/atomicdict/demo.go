package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/homier/atomicdict"
	"github.com/homier/atomicdict/region"
)

const (
	counterKey = 1
	// Every previous counter value idx is recorded under counterBase+idx.
	counterBase = 100
)

var demoLayout = atomicdict.Layout{K64: 1, V64: 1}

type demoCommand struct {
	Entries int    `short:"n" long:"entries" description:"maximum number of entries" default:"1048576"`
	Workers int    `short:"w" long:"workers" description:"number of worker processes" default:"16"`
	Adds    int    `short:"a" long:"adds" description:"fetch-adds per worker" default:"32768"`
	Name    string `long:"name" description:"region name, defaults to one derived from the pid"`
}

func (x *demoCommand) Execute(args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	if x.Workers <= 0 || x.Adds <= 0 {
		return fmt.Errorf("workers and adds must be positive")
	}

	if x.Workers*x.Adds+3 > x.Entries {
		return fmt.Errorf("%d entries can't hold %d recorded counter values", x.Entries, x.Workers*x.Adds)
	}

	name := x.Name
	if name == "" {
		name = "demo_" + strconv.Itoa(os.Getpid())
	}

	geo, err := atomicdict.DictGeometry(x.Entries, demoLayout)
	if err != nil {
		return err
	}

	r, err := region.Create(name, geo.Size())
	if err != nil {
		return err
	}
	defer r.Close()
	defer r.Remove()

	d, err := atomicdict.NewDict(r.Bytes(), geo)
	if err != nil {
		return err
	}

	if err := d.Set(52, 20); err != nil {
		return err
	}
	if err := d.Set(99, 3); err != nil {
		return err
	}

	for key, val := range d.All() {
		fmt.Printf("(%d, %d)\n", key[0], val)
	}

	started := time.Now()

	var (
		wg   sync.WaitGroup
		errs = make([]error, x.Workers)
	)

	for id := range x.Workers {
		cmd := exec.Command(os.Args[0], "--loglevel", options.LogLevel, "worker",
			"--id", strconv.Itoa(id), "--adds", strconv.Itoa(x.Adds))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.ExtraFiles = []*os.File{r.File()}

		if err := cmd.Start(); err != nil {
			errs[id] = fmt.Errorf("failed to start worker %d: %w", id, err)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := cmd.Wait(); err != nil {
				errs[id] = fmt.Errorf("worker %d: %w", id, err)
			}
		}()
	}

	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return err
	}

	log.Infof("%d workers finished in %s", x.Workers, time.Since(started))

	if err := verifyCounter(d, x.Workers, x.Adds); err != nil {
		return err
	}

	fmt.Println("OK!")

	return nil
}

// verifyCounter checks the counter reached workers*adds and that every
// previous value in [0, workers*adds) was handed out to some worker.
func verifyCounter(d *atomicdict.Dict, workers, adds int) error {
	total := uint64(workers * adds)

	got, err := d.Get(counterKey)
	if err != nil {
		return err
	}

	if got != total {
		return fmt.Errorf("counter is %d, want %d", got, total)
	}

	for idx := range total {
		id, ok, err := d.Lookup(counterBase + idx)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("counter value %d was never observed", idx)
		}

		if id >= uint64(workers) {
			return fmt.Errorf("counter value %d recorded by unknown worker %d", idx, id)
		}
	}

	return nil
}
