package main

import (
	"fmt"
	"os"

	"github.com/homier/atomicdict"
	"github.com/homier/atomicdict/region"
)

// regionFD is the descriptor of the first entry of exec.Cmd.ExtraFiles.
const regionFD = 3

type workerCommand struct {
	ID   int `long:"id" description:"worker id" required:"true"`
	Adds int `long:"adds" description:"fetch-adds to perform" default:"32768"`
}

func (x *workerCommand) Execute(args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	r, err := region.FromFile(os.NewFile(regionFD, "region"))
	if err != nil {
		return fmt.Errorf("worker %d: %w", x.ID, err)
	}
	defer r.Close()

	d, err := atomicdict.AttachDict(r.Bytes(), demoLayout)
	if err != nil {
		return err
	}

	return runWorker(d, x.ID, x.Adds)
}

// runWorker fetch-adds the counter adds times and records each previous
// value it observed under counterBase+value.
func runWorker(d *atomicdict.Dict, id, adds int) error {
	counter, err := d.Slot(counterKey)
	if err != nil {
		return err
	}

	for range adds {
		idx := counter.Add(1)
		if err := d.Set(uint64(id), counterBase+idx); err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
	}

	log.Debugf("worker %d done", id)

	return nil
}
