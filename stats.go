package atomicdict

type Stats struct {
	Size         int
	Capacity     int
	Blocks       int
	RowsPerBlock int
	FullBlocks   int
	LoadFactor   float64
}
