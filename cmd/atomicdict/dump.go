package main

import (
	"bufio"
	"io"
	"os"

	"github.com/sugawarayuuta/sonnet"

	"github.com/homier/atomicdict"
	"github.com/homier/atomicdict/region"
)

type dumpRow struct {
	Index  int      `json:"index"`
	Key    []uint64 `json:"key"`
	Values []uint64 `json:"values"`
}

type dumpCommand struct {
	LayoutOptions

	Name string `long:"name" description:"region name" required:"true"`
}

func (x *dumpCommand) Execute(args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	r, err := region.Open(x.Name)
	if err != nil {
		return err
	}
	defer r.Close()

	t, err := atomicdict.Attach(r.Bytes(), x.Layout())
	if err != nil {
		return err
	}

	return dumpTable(os.Stdout, t)
}

// dumpTable writes one JSON line per occupied row of t.
func dumpTable(out io.Writer, t *atomicdict.Table) error {
	w := bufio.NewWriter(out)

	for it := t.Iter(); it.Next(); {
		line, err := sonnet.Marshal(dumpRow{
			Index:  it.Slot().Index(),
			Key:    it.Key(),
			Values: it.Values(),
		})
		if err != nil {
			return err
		}

		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}

	return w.Flush()
}
