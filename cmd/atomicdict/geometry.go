package main

import (
	"os"

	"github.com/sugawarayuuta/sonnet"

	"github.com/homier/atomicdict"
)

type geometryReport struct {
	Entries      int     `json:"entries"`
	LoadFactor   float64 `json:"load_factor"`
	RowBytes     int     `json:"row_bytes"`
	RowsPerBlock int     `json:"rows_per_block"`
	BlockCount   int     `json:"block_count"`
	Capacity     int     `json:"capacity"`
	Size         int     `json:"size"`
}

type geometryCommand struct {
	LayoutOptions

	Entries    int     `short:"n" long:"entries" description:"maximum number of entries" default:"1048576"`
	LoadFactor float64 `long:"loadfactor" description:"target load factor" default:"0.5"`
}

func (x *geometryCommand) Execute(args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	geo, err := atomicdict.NewGeometry(x.Entries, x.Layout(), x.LoadFactor)
	if err != nil {
		return err
	}

	out, err := sonnet.Marshal(geometryReport{
		Entries:      x.Entries,
		LoadFactor:   x.LoadFactor,
		RowBytes:     geo.RowBytes(),
		RowsPerBlock: geo.RowsPerBlock,
		BlockCount:   geo.BlockCount,
		Capacity:     geo.Capacity(),
		Size:         geo.Size(),
	})
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(append(out, '\n'))

	return err
}
